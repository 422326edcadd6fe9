package interp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// qualifierList is one audit trail of header qualifier values, possibly
// interleaved with conditional interval tags. Serializes as [] when empty
// so the programs table always shows the list shape.
type qualifierList []any

func (l qualifierList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]any(l))
}

// HeaderQualifiers is the output of the header extractor: the five
// dedicated program columns plus the grab-bag Other column.
type HeaderQualifiers struct {
	TotalCredits qualifierList
	MaxTransfer  qualifierList
	MinRes       qualifierList
	MinGrade     qualifierList
	MinGPA       qualifierList
	Other        OtherQualifiers
}

// OtherQualifiers is the programs table's Other column.
type OtherQualifiers struct {
	MaxClass    qualifierList   `json:"maxclass_list"`
	MaxCredit   qualifierList   `json:"maxcredit_list"`
	MaxPassFail qualifierList   `json:"maxpassfail_list"`
	MaxPerDisc  qualifierList   `json:"maxperdisc_list"`
	MinClass    qualifierList   `json:"minclass_list"`
	MinCredit   qualifierList   `json:"mincredit_list"`
	MinPerDisc  qualifierList   `json:"minperdisc_list"`
	ProxyAdvice qualifierList   `json:"proxyadvice_list"`
	Remark      string          `json:"remark,omitempty"`
	PlanInfo    *types.PlanInfo `json:"plan_info,omitempty"`
}

// Qualifier list names, used by the conditional tagger to address lists
// uniformly across the five columns and the Other column.
const (
	listTotalCredits = "total_credits"
	listMaxTransfer  = "maxtransfer"
	listMinRes       = "minres"
	listMinGrade     = "mingrade"
	listMinGPA       = "mingpa"
	listMaxClass     = "maxclass"
	listMaxCredit    = "maxcredit"
	listMaxPassFail  = "maxpassfail"
	listMaxPerDisc   = "maxperdisc"
	listMinClass     = "minclass"
	listMinCredit    = "mincredit"
	listMinPerDisc   = "minperdisc"
	listProxyAdvice  = "proxyadvice"
)

func (q *HeaderQualifiers) list(name string) *qualifierList {
	switch name {
	case listTotalCredits:
		return &q.TotalCredits
	case listMaxTransfer:
		return &q.MaxTransfer
	case listMinRes:
		return &q.MinRes
	case listMinGrade:
		return &q.MinGrade
	case listMinGPA:
		return &q.MinGPA
	case listMaxClass:
		return &q.Other.MaxClass
	case listMaxCredit:
		return &q.Other.MaxCredit
	case listMaxPassFail:
		return &q.Other.MaxPassFail
	case listMaxPerDisc:
		return &q.Other.MaxPerDisc
	case listMinClass:
		return &q.Other.MinClass
	case listMinCredit:
		return &q.Other.MinCredit
	case listMinPerDisc:
		return &q.Other.MinPerDisc
	case listProxyAdvice:
		return &q.Other.ProxyAdvice
	}
	return nil
}

func (q *HeaderQualifiers) append(name string, value any) {
	if l := q.list(name); l != nil {
		*l = append(*l, value)
	}
}

// extractHeader makes a single pass over a block's header items (recursing
// only into nested conditionals) and collects the program-wide qualifiers.
// Unrecognized kinds are logged and skipped; only malformed record shapes
// are fatal.
func (m *Mapper) extractHeader(ctx context.Context, key types.BlockKey,
	tree *types.ParseTree) (*HeaderQualifiers, error) {
	q := &HeaderQualifiers{}

	if len(tree.HeaderList) == 0 {
		m.rep.Log(key.Institution, key.RequirementID, "Empty Header")
		return q, nil
	}

	for _, item := range tree.HeaderList {
		if err := m.headerItem(ctx, key, q, item.Key, item.Raw, nil, false); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// headerItem dispatches one header entry. Inside a conditional leg, tagger
// is non-nil and every touched list gets its interval tag first.
func (m *Mapper) headerItem(ctx context.Context, key types.BlockKey,
	q *HeaderQualifiers, itemKey string, raw json.RawMessage,
	tagger *condTagger, trueLeg bool) error {

	appendTo := func(list string, value any) {
		if tagger != nil {
			tagger.tag(list, trueLeg)
		}
		q.append(list, value)
	}
	logHandled := func() {
		if tagger == nil {
			m.rep.Log(key.Institution, key.RequirementID, "Header %s", itemKey)
		} else if trueLeg {
			m.rep.Log(key.Institution, key.RequirementID, "Header conditional true %s", itemKey)
		} else {
			m.rep.Log(key.Institution, key.RequirementID, "Header conditional false %s", itemKey)
		}
	}

	switch itemKey {
	case "conditional":
		m.rep.Log(key.Institution, key.RequirementID, "Header conditional")
		var cond types.HeaderConditional
		if err := json.Unmarshal(raw, &cond); err != nil {
			return structuralf(key, "header conditional: %v", err)
		}
		return m.headerConditional(ctx, key, q, &cond)

	case "header_class_credit":
		logHandled()
		value, err := m.headerClassCredit(key, raw)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header class_credit: %v", err)
			return nil
		}
		appendTo(listTotalCredits, value)

	case "header_maxtransfer":
		logHandled()
		value, err := headerMaxTransfer(raw)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header maxtransfer: %v", err)
			return nil
		}
		appendTo(listMaxTransfer, value)

	case "header_minres":
		logHandled()
		value, err := headerMinRes(raw)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header minres: %v", err)
			return nil
		}
		appendTo(listMinRes, value)

	case "header_mingrade":
		logHandled()
		value, err := headerMinGrade(raw)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header mingrade: %v", err)
			return nil
		}
		appendTo(listMinGrade, value)

	case "header_mingpa":
		logHandled()
		value, err := innerWithLabel(raw, "mingpa")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header mingpa: %v", err)
			return nil
		}
		appendTo(listMinGPA, value)

	case "header_maxclass":
		logHandled()
		value, err := m.headerCourseLimit(ctx, key, raw, "maxclass", false)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header maxclass: %v", err)
			return nil
		}
		appendTo(listMaxClass, value)

	case "header_maxcredit":
		logHandled()
		value, err := m.headerCourseLimit(ctx, key, raw, "maxcredit", true)
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header maxcredit: %v", err)
			return nil
		}
		appendTo(listMaxCredit, value)

	case "header_maxpassfail":
		logHandled()
		value, err := innerWithLabel(raw, "maxpassfail")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header maxpassfail: %v", err)
			return nil
		}
		appendTo(listMaxPassFail, value)

	case "header_maxperdisc":
		logHandled()
		value, err := innerWithLabel(raw, "maxperdisc")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header maxperdisc: %v", err)
			return nil
		}
		appendTo(listMaxPerDisc, value)

	case "header_minclass":
		logHandled()
		value, err := innerWithLabel(raw, "minclass")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header minclass: %v", err)
			return nil
		}
		appendTo(listMinClass, value)

	case "header_mincredit":
		logHandled()
		value, err := innerWithLabel(raw, "mincredit")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header mincredit: %v", err)
			return nil
		}
		appendTo(listMinCredit, value)

	case "header_minperdisc":
		logHandled()
		value, err := innerWithLabel(raw, "minperdisc")
		if err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header minperdisc: %v", err)
			return nil
		}
		appendTo(listMinPerDisc, value)

	case "proxy_advice", "proxyadvice":
		if m.opts.NoProxyAdvice {
			m.rep.Log(key.Institution, key.RequirementID, "Header %s (ignored)", itemKey)
			return nil
		}
		logHandled()
		appendTo(listProxyAdvice, json.RawMessage(raw))

	case "remark":
		m.rep.Log(key.Institution, key.RequirementID, "Header remark")
		var text types.RemarkText
		if err := json.Unmarshal(raw, &text); err != nil {
			m.rep.Fail(key.Institution, key.RequirementID, "Header remark: %v", err)
			return nil
		}
		q.Other.Remark = string(text)

	case "header_share":
		// No course requirements follow from share qualifiers.
		if tagger == nil {
			m.rep.Log(key.Institution, key.RequirementID, "Header header_share (ignored)")
		}

	case "header_lastres", "header_maxterm", "header_minterm", "lastres",
		"noncourse", "optional", "rule_complete", "standalone", "header_tag", "under":
		m.rep.Log(key.Institution, key.RequirementID, "Header %s (ignored)", itemKey)

	default:
		if tagger != nil {
			m.rep.Todo(key.Institution, key.RequirementID,
				"Header conditional %s not implemented", itemKey)
		} else {
			m.rep.Anomaly(key.Institution, key.RequirementID,
				"Unexpected %s in header", itemKey)
		}
	}
	return nil
}

// headerConditional interprets both legs of a header if/else into the same
// qualifier lists, delimited per list with interval tags. The flat,
// per-list trail is deliberate: consumers read each qualifier column
// independently of the branch nesting.
func (m *Mapper) headerConditional(ctx context.Context, key types.BlockKey,
	q *HeaderQualifiers, cond *types.HeaderConditional) error {
	tagger := &condTagger{
		q:         q,
		condition: cond.ConditionStr,
		concise:   m.opts.ConciseConditionals,
	}

	for _, item := range cond.IfTrue {
		if err := m.headerItem(ctx, key, q, item.Key, item.Raw, tagger, true); err != nil {
			return err
		}
	}
	if cond.IfFalse != nil {
		for _, item := range *cond.IfFalse {
			if err := m.headerItem(ctx, key, q, item.Key, item.Raw, tagger, false); err != nil {
				return err
			}
		}
	}

	tagger.close()
	return nil
}

// condTagger manages the interval tags for one header conditional. Each
// qualifier list is opened at most once per leg, and every opened list gets
// a matching endif when the conditional concludes.
type condTagger struct {
	q         *HeaderQualifiers
	condition string
	concise   bool

	taggedTrue  []string
	taggedFalse []string
}

func (t *condTagger) tag(list string, trueLeg bool) {
	tagged := &t.taggedTrue
	if !trueLeg {
		tagged = &t.taggedFalse
	}
	if containsString(*tagged, list) {
		return
	}
	*tagged = append(*tagged, list)

	var open map[string]string
	switch {
	case t.concise && trueLeg:
		open = map[string]string{"if": t.condition}
	case t.concise:
		open = map[string]string{"else": ""}
	case trueLeg:
		open = map[string]string{"if_true": t.condition}
	default:
		open = map[string]string{"if_false": t.condition}
	}
	t.q.append(list, open)
}

func (t *condTagger) close() {
	// The condition in the endif is for verification, not logically needed;
	// concise mode drops it.
	condition := t.condition
	if t.concise {
		condition = ""
	}
	closed := append([]string{}, t.taggedTrue...)
	for _, list := range t.taggedFalse {
		if !containsString(closed, list) {
			closed = append(closed, list)
		}
	}
	for _, list := range closed {
		t.q.append(list, map[string]string{"endif": condition})
	}
}

// headerClassCredit renders the program's "requirement size": total classes
// and/or credits from the header.
func (m *Mapper) headerClassCredit(key types.BlockKey, raw json.RawMessage) (map[string]any, error) {
	var v struct {
		Label       string          `json:"label"`
		ProxyAdvice json.RawMessage `json:"proxy_advice"`
		IsPseudo    bool            `json:"is_pseudo"`
		MinClasses  *types.Number   `json:"min_classes"`
		MaxClasses  *types.Number   `json:"max_classes"`
		MinCredits  *types.Number   `json:"min_credits"`
		MaxCredits  *types.Number   `json:"max_credits"`
		Conjunction string          `json:"conjunction"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	out := map[string]any{"is_pseudo": v.IsPseudo}
	if v.Label != "" {
		out["label"] = v.Label
	}
	if len(v.ProxyAdvice) > 0 && !m.opts.NoProxyAdvice {
		out["proxy_advice"] = v.ProxyAdvice
	}

	classesPart := ""
	if v.MinClasses != nil || v.MaxClasses != nil {
		lo, hi := v.MinClasses.Int(), v.MaxClasses.Int()
		if lo == hi {
			classesPart = fmt.Sprintf("%d classes", hi)
		} else {
			classesPart = fmt.Sprintf("%d-%d classes", lo, hi)
		}
	}
	creditsPart := ""
	if v.MinCredits != nil || v.MaxCredits != nil {
		lo, hi := v.MinCredits.Float(), v.MaxCredits.Float()
		if lo == hi {
			creditsPart = fmt.Sprintf("%.1f credits", hi)
		} else {
			creditsPart = fmt.Sprintf("%.1f-%.1f credits", lo, hi)
		}
	}

	switch {
	case classesPart != "" && creditsPart != "":
		out["size"] = classesPart + " " + v.Conjunction + " " + creditsPart
	case classesPart != "" || creditsPart != "":
		out["size"] = classesPart + creditsPart
	default:
		return nil, fmt.Errorf("class_credit with no class or credit bounds")
	}
	return out, nil
}

func headerMaxTransfer(raw json.RawMessage) (map[string]any, error) {
	var v struct {
		Label       string             `json:"label"`
		MaxTransfer *types.MaxTransfer `json:"maxtransfer"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.MaxTransfer == nil {
		return nil, fmt.Errorf("missing maxtransfer value")
	}
	out := map[string]any{"label": v.Label}
	number := v.MaxTransfer.Number.Float()
	if v.MaxTransfer.ClassOrCredit == "credit" {
		out["limit"] = fmt.Sprintf("%3.1f credits", number)
	} else {
		suffix := "es"
		if int(number) == 1 {
			suffix = ""
		}
		out["limit"] = fmt.Sprintf("%3d class%s", int(number), suffix)
	}
	if len(v.MaxTransfer.TransferTypes) > 0 {
		out["transfer_types"] = v.MaxTransfer.TransferTypes
	}
	return out, nil
}

func headerMinRes(raw json.RawMessage) (map[string]any, error) {
	var v struct {
		Label  string `json:"label"`
		MinRes struct {
			MinClasses *types.Number `json:"min_classes"`
			MinCredits *types.Number `json:"min_credits"`
		} `json:"minres"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	var minres string
	switch {
	case v.MinRes.MinClasses != nil && v.MinRes.MinCredits == nil:
		minres = fmt.Sprintf("%d classes", v.MinRes.MinClasses.Int())
	case v.MinRes.MinClasses == nil && v.MinRes.MinCredits != nil:
		minres = fmt.Sprintf("%.1f credits", v.MinRes.MinCredits.Float())
	default:
		return nil, fmt.Errorf("minres needs exactly one of classes or credits")
	}
	return map[string]any{"minres": minres, "label": v.Label}, nil
}

func headerMinGrade(raw json.RawMessage) (map[string]any, error) {
	value, err := innerWithLabel(raw, "mingrade")
	if err != nil {
		return nil, err
	}
	var typed struct {
		MinGrade struct {
			Number *types.Number `json:"number"`
		} `json:"mingrade"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, err
	}
	value["letter_grade"] = letterGrade(typed.MinGrade.Number.Float())
	return value, nil
}

// innerWithLabel lifts the value object named by innerKey and attaches the
// sibling label, the passthrough shape most header qualifiers use.
func innerWithLabel(raw json.RawMessage, innerKey string) (map[string]any, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, err
	}
	innerRaw, ok := outer[innerKey]
	if !ok {
		return nil, fmt.Errorf("missing %s value", innerKey)
	}
	inner := map[string]any{}
	if err := json.Unmarshal(innerRaw, &inner); err != nil {
		return nil, fmt.Errorf("%s value: %w", innerKey, err)
	}
	var label string
	if labelRaw, ok := outer["label"]; ok {
		_ = json.Unmarshal(labelRaw, &label)
	}
	inner["label"] = label
	return inner, nil
}

// headerCourseLimit handles maxclass and maxcredit, whose values carry a
// course list that gets catalog-expanded for the programs table.
func (m *Mapper) headerCourseLimit(ctx context.Context, key types.BlockKey,
	raw json.RawMessage, innerKey string, credits bool) (map[string]any, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, err
	}
	innerRaw, ok := outer[innerKey]
	if !ok {
		return nil, fmt.Errorf("missing %s value", innerKey)
	}
	var inner struct {
		Number     *types.Number     `json:"number"`
		CourseList *types.CourseList `json:"course_list"`
	}
	if err := json.Unmarshal(innerRaw, &inner); err != nil {
		return nil, fmt.Errorf("%s value: %w", innerKey, err)
	}
	var label string
	if labelRaw, ok := outer["label"]; ok {
		_ = json.Unmarshal(labelRaw, &label)
	}

	var number any
	if credits {
		number = inner.Number.Float()
	} else {
		number = inner.Number.Int()
	}

	canonical, err := m.normalizeCourses(ctx, key, inner.CourseList)
	if err != nil {
		return nil, err
	}
	courses := make([]map[string]string, 0, len(canonical))
	for _, c := range canonical {
		courses = append(courses, map[string]string{
			"course_id": c.CourseIDStr(),
			"course":    c.CourseStr,
			"with":      c.WithClause,
		})
	}

	courseList := map[string]any{"courses": courses}
	if inner.CourseList != nil {
		courseList["scribed_courses"] = inner.CourseList.ScribedCourses
		if len(inner.CourseList.ExceptCourses) > 0 {
			courseList["except_courses"] = inner.CourseList.ExceptCourses
		}
	}
	return map[string]any{"label": label, "number": number, "courses": courseList}, nil
}
