// services/codec.go
//
// Versioned survey codec. Three on-disk generations coexist in the field:
//
//	v0 — the original flat questionnaire (bathroomType, hasPhotos, easyClean…)
//	v1 — the numbered-alias shape older pages dual-write (q1, q18_funding…)
//	v2 — the canonical shape (q1_hearAbout, q18_fundingMethod…)
//
// Normalize runs the migration chain v0→v1→v2 so every tool reads the same
// canonical document no matter which app version produced it. Denormalize
// re-attaches every alias so pages still on v1 keep working.
package services

import (
	"encoding/json"

	"github.com/xrkr80hd/EZApp/models"
)

// CurrentSurveySchema tags documents written by this build.
const CurrentSurveySchema = 2

// v0Renames moves the unambiguous original-questionnaire keys onto their
// later names. Keys whose numbering was reused with a different meaning in
// v1 (q2, q4, q7…) resolve through the v1 alias table instead; v0 fields
// with no later home (easyClean, warranty, americanMade, targetProject)
// ride along in Extra untouched.
var v0Renames = map[string]string{
	"bathroomType": "q3_other",
	"hasPhotos":    "q6_seenBath",
	"q5notes":      "q7_likedMost",
	"q10notes":     "q21_notes",
}

// v0Markers identify the original flat shape.
var v0Markers = []string{
	"bathroomType", "hasPhotos", "targetProject", "easyClean",
	"warranty", "americanMade", "q5notes", "q10notes",
}

// v2Markers identify a canonical document.
var v2Markers = []string{
	"q1_hearAbout", "q2_numBaths", "q4_primaryUsers", "q11_accessibility",
	"q18_fundingMethod", "q21_deposit",
}

// NormalizeSurvey converts any historically persisted survey shape into the
// canonical document. Malformed JSON yields a ParseError; a document with no
// customer name yields a NormalizationError. Callers treat either as "no
// survey" rather than failing.
func NormalizeSurvey(raw []byte) (*models.SurveyDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &ParseError{Key: "survey", Err: err}
	}

	if detectSurveySchema(fields) == 0 {
		for from, to := range v0Renames {
			v, ok := fields[from]
			if !ok {
				continue
			}
			if _, taken := fields[to]; !taken {
				fields[to] = v
			}
			delete(fields, from)
		}
	}

	migrated, err := json.Marshal(fields)
	if err != nil {
		return nil, &ParseError{Key: "survey", Err: err}
	}
	doc := models.DefaultSurvey()
	if err := json.Unmarshal(migrated, doc); err != nil {
		return nil, &ParseError{Key: "survey", Err: err}
	}

	promoteAliases(doc)
	if doc.CustomerName == "" {
		return nil, &NormalizationError{Reason: "survey has no customerName"}
	}
	doc.SchemaVersion = CurrentSurveySchema
	return doc, nil
}

// DenormalizeSurvey produces the storable shape: canonical fields plus every
// legacy alias populated from them.
func DenormalizeSurvey(doc *models.SurveyDocument) *models.SurveyDocument {
	out := *doc
	out.AliasQ1 = out.HearAbout
	out.AliasQ4 = out.PrimaryUsers
	out.AliasQ5 = out.Vision
	out.AliasQ7 = out.LikedMost
	out.AliasQ8 = out.LikeCurrent
	out.AliasQ9 = out.DislikeCurrent
	out.AliasQ10 = out.WantChanged
	out.AliasQ12 = out.HomeAge
	out.AliasQ13 = out.YearsLived
	out.AliasQ14 = out.YearsPlanning
	out.AliasQ15 = out.HowLongConsidering
	out.AliasQ16 = out.WhatPrevented
	out.AliasQ17 = out.OtherProjects
	out.AliasFunding = out.FundingMethod
	out.AliasQ19 = out.CashTiming
	out.AliasRange = out.MonthlyRange
	out.AliasDepositNotes = out.DepositNotes
	out.AliasMobilityIssue = out.Accessibility
	out.AliasMobilityNotes = out.AccessibilityNotes
	out.SchemaVersion = CurrentSurveySchema
	if out.WhichBaths == nil {
		out.WhichBaths = []string{}
	}
	return &out
}

func detectSurveySchema(fields map[string]json.RawMessage) int {
	if raw, ok := fields["schemaVersion"]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	for _, key := range v2Markers {
		if _, ok := fields[key]; ok {
			return 2
		}
	}
	for _, key := range v0Markers {
		if _, ok := fields[key]; ok {
			return 0
		}
	}
	return 1
}

// promoteAliases fills empty canonical fields from their legacy aliases.
// A value present under both names always keeps the canonical one.
func promoteAliases(doc *models.SurveyDocument) {
	promote := func(dst *string, alias string) {
		if *dst == "" && alias != "" {
			*dst = alias
		}
	}
	promote(&doc.HearAbout, doc.AliasQ1)
	promote(&doc.PrimaryUsers, doc.AliasQ4)
	promote(&doc.Vision, doc.AliasQ5)
	promote(&doc.LikedMost, doc.AliasQ7)
	promote(&doc.LikeCurrent, doc.AliasQ8)
	promote(&doc.DislikeCurrent, doc.AliasQ9)
	promote(&doc.WantChanged, doc.AliasQ10)
	promote(&doc.HomeAge, doc.AliasQ12)
	promote(&doc.YearsLived, doc.AliasQ13)
	promote(&doc.YearsPlanning, doc.AliasQ14)
	promote(&doc.HowLongConsidering, doc.AliasQ15)
	promote(&doc.WhatPrevented, doc.AliasQ16)
	promote(&doc.OtherProjects, doc.AliasQ17)
	promote(&doc.FundingMethod, doc.AliasFunding)
	promote(&doc.CashTiming, doc.AliasQ19)
	promote(&doc.MonthlyRange, doc.AliasRange)
	promote(&doc.DepositNotes, doc.AliasDepositNotes)
	promote(&doc.Accessibility, doc.AliasMobilityIssue)
	promote(&doc.AccessibilityNotes, doc.AliasMobilityNotes)
}
