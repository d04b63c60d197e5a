package models

import (
	"encoding/json"
	"reflect"
)

// SurveyDocument is the canonical in-memory survey shape. Every historical
// on-disk shape converges to it through the codec. Alias fields mirror the
// question numbering older pages still read; they are re-derived from the
// canonical fields on every write.
type SurveyDocument struct {
	SchemaVersion int `json:"schemaVersion,omitempty"`

	CustomerName    string `json:"customerName"`
	ProductType     string `json:"productType"`
	CustomerAddress string `json:"customerAddress"`
	Timestamp       string `json:"timestamp"`

	HearAbout          string   `json:"q1_hearAbout"`
	NumBaths           string   `json:"q2_numBaths"`
	WhichBaths         []string `json:"q3_whichBaths"`
	OtherBaths         string   `json:"q3_other"`
	PrimaryUsers       string   `json:"q4_primaryUsers"`
	Vision             string   `json:"q5_vision"`
	SeenBath           string   `json:"q6_seenBath"`
	LikedMost          string   `json:"q7_likedMost"`
	LikeCurrent        string   `json:"q8_likeCurrent"`
	DislikeCurrent     string   `json:"q9_dislikeCurrent"`
	WantChanged        string   `json:"q10_wantChanged"`
	Accessibility      string   `json:"q11_accessibility"`
	AccessibilityNotes string   `json:"q11_notes"`
	HomeAge            string   `json:"q12_homeAge"`
	YearsLived         string   `json:"q13_yearsLived"`
	YearsPlanning      string   `json:"q14_yearsPlanning"`
	HowLongConsidering string   `json:"q15_howLongConsidering"`
	WhatPrevented      string   `json:"q16_whatPrevented"`
	OtherProjects      string   `json:"q17_otherProjects"`
	FundingMethod      string   `json:"q18_fundingMethod"`
	CashTiming         string   `json:"q19_cashTiming"`
	MonthlyRange       string   `json:"q20_monthlyRange"`
	Deposit            string   `json:"q21_deposit"`
	DepositNotes       string   `json:"q21_notes"`
	TakeawayNotes      string   `json:"takeawayNotes"`

	// Legacy aliases for old pages.
	AliasQ1            string `json:"q1"`
	AliasQ4            string `json:"q4"`
	AliasQ5            string `json:"q5"`
	AliasQ7            string `json:"q7"`
	AliasQ8            string `json:"q8"`
	AliasQ9            string `json:"q9"`
	AliasQ10           string `json:"q10"`
	AliasQ12           string `json:"q12"`
	AliasQ13           string `json:"q13"`
	AliasQ14           string `json:"q14"`
	AliasQ15           string `json:"q15"`
	AliasQ16           string `json:"q16"`
	AliasQ17           string `json:"q17"`
	AliasFunding       string `json:"q18_funding"`
	AliasQ19           string `json:"q19"`
	AliasRange         string `json:"q20_range"`
	AliasDepositNotes  string `json:"q21_notes_legacy"`
	AliasMobilityIssue string `json:"mobilityIssue"`
	AliasMobilityNotes string `json:"q6notes"`

	// Unrecognized fields survive the round trip untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// surveyAlias prevents Marshal/Unmarshal recursion.
type surveyAlias SurveyDocument

// surveyKnownKeys is the set of json tags owned by SurveyDocument fields.
var surveyKnownKeys = func() map[string]bool {
	known := map[string]bool{}
	t := reflect.TypeOf(SurveyDocument{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		for j := 0; j < len(tag); j++ {
			if tag[j] == ',' {
				tag = tag[:j]
				break
			}
		}
		known[tag] = true
	}
	return known
}()

// DefaultSurvey returns the empty canonical document. Optional fields default
// to empty strings and an empty bath list, never null.
func DefaultSurvey() *SurveyDocument {
	return &SurveyDocument{WhichBaths: []string{}}
}

func (s *SurveyDocument) UnmarshalJSON(data []byte) error {
	var base surveyAlias
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	extra := map[string]json.RawMessage{}
	for k, v := range all {
		if !surveyKnownKeys[k] {
			extra[k] = v
		}
	}

	*s = SurveyDocument(base)
	if s.WhichBaths == nil {
		s.WhichBaths = []string{}
	}
	if len(extra) > 0 {
		s.Extra = extra
	}
	return nil
}

func (s SurveyDocument) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(surveyAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return base, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, owned := all[k]; !owned {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
