package codeforces

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/cfheat/internal/model"
)

const statusOK = "OK"

type statusResponse struct {
	Status  string           `json:"status"`
	Comment string           `json:"comment,omitempty"`
	Result  []submissionJSON `json:"result"`
}

type submissionJSON struct {
	ID                  int64       `json:"id"`
	ContestID           contestID   `json:"contestId,omitempty"`
	CreationTimeSeconds int64       `json:"creationTimeSeconds"`
	Verdict             string      `json:"verdict,omitempty"`
	Problem             problemJSON `json:"problem"`
}

type problemJSON struct {
	ContestID contestID `json:"contestId,omitempty"`
	Index     string    `json:"index"`
	Name      string    `json:"name"`
	Rating    *int      `json:"rating,omitempty"`
}

// ToRawSubmissions converts the wire result into domain records.
func (r *statusResponse) ToRawSubmissions(loc *time.Location) []model.RawSubmission {
	if r == nil {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	out := make([]model.RawSubmission, 0, len(r.Result))
	for _, s := range r.Result {
		contest := string(s.ContestID)
		if contest == "" {
			contest = string(s.Problem.ContestID)
		}
		rating := 0
		if s.Problem.Rating != nil {
			rating = *s.Problem.Rating
		}
		out = append(out, model.RawSubmission{
			ID:        s.ID,
			ContestID: contest,
			Index:     s.Problem.Index,
			Name:      s.Problem.Name,
			Rating:    rating,
			Verdict:   s.Verdict,
			CreatedAt: time.Unix(s.CreationTimeSeconds, 0).In(loc),
		})
	}
	return out
}

// ProblemURL builds the problem link. Contest ids of at most four characters
// are regular rounds; anything longer is a gym contest.
func ProblemURL(contest, index string) string {
	if contest != "" && len(contest) <= 4 {
		return problemBase + "/problemset/problem/" + contest + "/" + index
	}
	return problemBase + "/problemset/gymProblem/" + contest + "/" + index
}

const problemBase = "https://codeforces.com"

// contestID accepts both numeric and string JSON values.
type contestID string

func (c *contestID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = contestID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("invalid contest id %s", n)
	}
	*c = contestID(n.String())
	return nil
}
