package application

import (
	"strings"

	"github.com/artem13815/jobboard/pkg/apperr"
)

// Status is the hiring stage of an application.
//
// applied -> reviewing -> shortlisted -> interviewed -> offered | rejected.
// Employers may jump between stages directly; the only hard rules are that
// offered, rejected and withdrawn are terminal, and that withdrawal is an
// applicant action allowed from applied and reviewing only.
type Status string

const (
	StatusApplied     Status = "applied"
	StatusReviewing   Status = "reviewing"
	StatusShortlisted Status = "shortlisted"
	StatusInterviewed Status = "interviewed"
	StatusOffered     Status = "offered"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusApplied,
	StatusReviewing,
	StatusShortlisted,
	StatusInterviewed,
	StatusOffered,
	StatusRejected,
	StatusWithdrawn,
}

// withdrawableFrom are the only statuses an applicant may withdraw from.
var withdrawableFrom = []Status{StatusApplied, StatusReviewing}

// open are the statuses an employer may still move away from.
var open = []Status{StatusApplied, StatusReviewing, StatusShortlisted, StatusInterviewed}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusOffered || s == StatusRejected || s == StatusWithdrawn
}

func (s Status) Withdrawable() bool {
	return s == StatusApplied || s == StatusReviewing
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Validation("unknown status " + raw)
	}
	return s, nil
}

// checkEmployerTransition validates an employer-driven status change.
func checkEmployerTransition(from, to Status) error {
	if !to.Valid() {
		return apperr.Validation("unknown status " + string(to))
	}
	if to == StatusWithdrawn {
		return apperr.Validation("only the applicant can withdraw an application")
	}
	if from.Terminal() {
		return apperr.InvalidTransition("application is " + string(from) + " and can no longer change")
	}
	return nil
}

// Stats counts applications per status. Total is the sum of the counters.
type Stats struct {
	Applied     int `json:"applied"`
	Reviewing   int `json:"reviewing"`
	Shortlisted int `json:"shortlisted"`
	Interviewed int `json:"interviewed"`
	Offered     int `json:"offered"`
	Rejected    int `json:"rejected"`
	Withdrawn   int `json:"withdrawn"`
	Total       int `json:"total"`
}

func (st *Stats) Add(s Status, n int) {
	switch s {
	case StatusApplied:
		st.Applied += n
	case StatusReviewing:
		st.Reviewing += n
	case StatusShortlisted:
		st.Shortlisted += n
	case StatusInterviewed:
		st.Interviewed += n
	case StatusOffered:
		st.Offered += n
	case StatusRejected:
		st.Rejected += n
	case StatusWithdrawn:
		st.Withdrawn += n
	default:
		return
	}
	st.Total += n
}
