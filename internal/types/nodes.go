package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// NodeKind tags the variants of the body-rule union. The set is closed:
// decoding keeps unrecognized kinds as UnknownNode values so the
// interpreter can decide whether they are subset-only qualifiers (skipped)
// or structural errors (fatal).
type NodeKind string

const (
	KindBlock            NodeKind = "block"
	KindBlockType        NodeKind = "blocktype"
	KindClassCredit      NodeKind = "class_credit"
	KindConditional      NodeKind = "conditional"
	KindCopyRules        NodeKind = "copy_rules"
	KindCourseList       NodeKind = "course_list"
	KindCourseListRule   NodeKind = "course_list_rule"
	KindGroupRequirement NodeKind = "group_requirement"
	KindSubset           NodeKind = "subset"
	KindRemark           NodeKind = "remark"
	KindProxyAdvice      NodeKind = "proxy_advice"
	KindRuleComplete     NodeKind = "rule_complete"
	KindNonCourse        NodeKind = "noncourse"
	KindSequence         NodeKind = "sequence"
	KindUnknown          NodeKind = "unknown"
)

// Node is one parse-tree body rule.
type Node interface {
	Kind() NodeKind
}

// ErrNotSingleKey is returned when a rule object does not have exactly one
// key. The interpreter escalates it to a structural error, since it means
// the upstream grammar produced a shape this program does not model.
var ErrNotSingleKey = errors.New("rule object is not a single-key record")

// NodeList is an ordered list of body rules. Items decode from single-key
// JSON objects; nested arrays (emitted by the grammar for "this or that,
// zero or more times" constructs) are spliced in place.
type NodeList []Node

func (l *NodeList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(NodeList, 0, len(raws))
	for _, raw := range raws {
		nodes, err := decodeItem(raw)
		if err != nil {
			return err
		}
		out = append(out, nodes...)
	}
	*l = out
	return nil
}

func decodeItem(raw json.RawMessage) ([]Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var nested NodeList
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, err
		}
		return nested, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []Node{&RemarkNode{Text: s}}, nil
	case '{':
		var kv map[string]json.RawMessage
		if err := json.Unmarshal(raw, &kv); err != nil {
			return nil, err
		}
		if len(kv) != 1 {
			keys := make([]string, 0, len(kv))
			for k := range kv {
				keys = append(keys, k)
			}
			return nil, fmt.Errorf("%w: keys %v", ErrNotSingleKey, keys)
		}
		for k, v := range kv {
			node, err := decodeNode(k, v)
			if err != nil {
				return nil, err
			}
			return []Node{node}, nil
		}
	}
	return nil, fmt.Errorf("unhandled rule shape %.40s", string(raw))
}

// decodeNode decodes the value of one kind-tagged rule. Array values are
// accepted everywhere: the grammar sometimes emits a list of rule values
// under a single kind key, which becomes a Sequence here.
func decodeNode(kind string, raw json.RawMessage) (Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' && kind != "remark" {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, err
		}
		seq := &Sequence{}
		for _, elem := range elems {
			elem = bytes.TrimSpace(elem)
			// An element may itself be a single-key rule object, or a bare
			// value dict for the enclosing kind.
			if len(elem) > 0 && elem[0] == '{' {
				var kv map[string]json.RawMessage
				if err := json.Unmarshal(elem, &kv); err != nil {
					return nil, err
				}
				if len(kv) == 1 {
					for k := range kv {
						if isRuleKind(k) {
							nodes, err := decodeItem(elem)
							if err != nil {
								return nil, err
							}
							seq.Items = append(seq.Items, nodes...)
						} else {
							node, err := decodeNode(kind, elem)
							if err != nil {
								return nil, err
							}
							seq.Items = append(seq.Items, node)
						}
					}
					continue
				}
			}
			node, err := decodeNode(kind, elem)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, node)
		}
		return seq, nil
	}

	switch kind {
	case "block":
		n := &BlockRule{}
		return n, json.Unmarshal(raw, n)
	case "blocktype":
		n := &BlockTypeRule{}
		return n, json.Unmarshal(raw, n)
	case "class_credit":
		n := &ClassCredit{}
		return n, json.Unmarshal(raw, n)
	case "conditional":
		n := &Conditional{}
		return n, json.Unmarshal(raw, n)
	case "copy_rules":
		n := &CopyRules{}
		return n, json.Unmarshal(raw, n)
	case "course_list":
		n := &CourseList{}
		return n, json.Unmarshal(raw, n)
	case "course_list_rule":
		n := &CourseListRule{}
		return n, json.Unmarshal(raw, n)
	case "group_requirement", "group_requirements":
		n := &GroupRequirement{}
		return n, json.Unmarshal(raw, n)
	case "subset":
		n := &Subset{}
		return n, json.Unmarshal(raw, n)
	case "remark":
		var text RemarkText
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		return &RemarkNode{Text: string(text)}, nil
	case "proxy_advice", "proxyadvice":
		return &ProxyAdviceNode{Raw: append(json.RawMessage(nil), raw...)}, nil
	case "rule_complete":
		n := &RuleComplete{}
		return n, json.Unmarshal(raw, n)
	case "noncourse":
		n := &NonCourse{Raw: append(json.RawMessage(nil), raw...)}
		return n, nil
	default:
		return &UnknownNode{Name: kind, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func isRuleKind(key string) bool {
	switch NodeKind(key) {
	case KindBlock, KindBlockType, KindClassCredit, KindConditional,
		KindCopyRules, KindCourseList, KindCourseListRule,
		KindGroupRequirement, KindSubset, KindRemark, KindProxyAdvice,
		KindRuleComplete, KindNonCourse:
		return true
	}
	return false
}

// RemarkText decodes a remark that is either a string or a list of strings.
type RemarkText string

func (r *RemarkText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*r = RemarkText(strings.Join(parts, " "))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = RemarkText(s)
	return nil
}

// Restrictions are the qualifiers that may ride along on a body rule and
// affect transferability: a transfer ceiling and a minimum grade.
type Restrictions struct {
	MaxTransfer *MaxTransfer `json:"maxtransfer,omitempty"`
	MinGrade    *MinGrade    `json:"mingrade,omitempty"`
}

// MaxTransfer limits how many classes or credits may transfer.
type MaxTransfer struct {
	Number        *Number  `json:"number,omitempty"`
	ClassOrCredit string   `json:"class_or_credit,omitempty"`
	TransferTypes []string `json:"transfer_types,omitempty"`
}

// MinGrade is a grade floor, scribed as a grade-point number.
type MinGrade struct {
	Number *Number `json:"number,omitempty"`
}

// CourseTriple is one scribed course pattern: discipline and catalog number
// may contain the wildcard marker "@" or a "lo:hi" range; the with-clause
// is optional free text.
type CourseTriple struct {
	Discipline    string
	CatalogNumber string
	WithClause    string
}

// UnmarshalJSON accepts the grammar's 3-element array form as well as an
// object form.
func (t *CourseTriple) UnmarshalJSON(data []byte) error {
	*t = CourseTriple{}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []*string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		if len(parts) > 0 && parts[0] != nil {
			t.Discipline = *parts[0]
		}
		if len(parts) > 1 && parts[1] != nil {
			t.CatalogNumber = *parts[1]
		}
		if len(parts) > 2 && parts[2] != nil {
			t.WithClause = *parts[2]
		}
		return nil
	}
	var obj struct {
		Discipline    string `json:"discipline"`
		CatalogNumber string `json:"catalog_number"`
		WithClause    string `json:"with_clause"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Discipline = obj.Discipline
	t.CatalogNumber = obj.CatalogNumber
	t.WithClause = obj.WithClause
	return nil
}

// MarshalJSON keeps the array form for round-tripping into requirement
// context JSON.
func (t CourseTriple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{t.Discipline, t.CatalogNumber, t.WithClause})
}

// CourseList is a scribed course list: included areas, an include list
// (logged, otherwise ignored), and an exclude list.
type CourseList struct {
	ScribedCourses [][]CourseTriple `json:"scribed_courses"`
	IncludeCourses []CourseTriple   `json:"include_courses,omitempty"`
	ExceptCourses  []CourseTriple   `json:"except_courses,omitempty"`
}

func (c *CourseList) Kind() NodeKind { return KindCourseList }

// NumScribed counts scribed patterns across all areas.
func (c *CourseList) NumScribed() int {
	n := 0
	for _, area := range c.ScribedCourses {
		n += len(area)
	}
	return n
}

// BlockRule references another requirement block by type and value.
type BlockRule struct {
	Label       string  `json:"label"`
	Number      *Number `json:"number"`
	Institution string  `json:"institution"`
	BlockType   string  `json:"block_type"`
	BlockValue  string  `json:"block_value"`
}

func (n *BlockRule) Kind() NodeKind { return KindBlock }

// BlockTypeRule selects blocks of a given type, in practice a plan's
// concentrations.
type BlockTypeRule struct {
	Label     string  `json:"label"`
	Number    *Number `json:"number"`
	BlockType string  `json:"block_type"`
}

func (n *BlockTypeRule) Kind() NodeKind { return KindBlockType }

// ClassCredit is the workhorse rule: "N classes and/or M credits", usually
// with a course list. A ClassCredit without a course list is a pure size
// constraint, which is normal.
type ClassCredit struct {
	Restrictions
	Label        string          `json:"label"`
	MinClasses   *Number         `json:"min_classes"`
	MaxClasses   *Number         `json:"max_classes"`
	MinCredits   *Number         `json:"min_credits"`
	MaxCredits   *Number         `json:"max_credits"`
	AllowClasses *Number         `json:"allow_classes,omitempty"`
	AllowCredits *Number         `json:"allow_credits,omitempty"`
	Conjunction  string          `json:"conjunction,omitempty"`
	IsPseudo     bool            `json:"is_pseudo,omitempty"`
	ProxyAdvice  json.RawMessage `json:"proxy_advice,omitempty"`
	CourseList   *CourseList     `json:"course_list,omitempty"`
}

func (n *ClassCredit) Kind() NodeKind { return KindClassCredit }

// Conditional is an if/else over nested rules. The false branch is
// optional; its absence is normal.
type Conditional struct {
	ConditionStr string    `json:"condition_str"`
	IfTrue       NodeList  `json:"if_true"`
	IfFalse      *NodeList `json:"if_false,omitempty"`
}

func (n *Conditional) Kind() NodeKind { return KindConditional }

// CopyRules splices the body of another block (same institution) into the
// current traversal.
type CopyRules struct {
	Label         string `json:"label,omitempty"`
	RequirementID string `json:"requirement_id"`
}

func (n *CopyRules) Kind() NodeKind { return KindCopyRules }

// CourseListRule is a course list required in its entirety.
type CourseListRule struct {
	Restrictions
	Label      string      `json:"label,omitempty"`
	CourseList *CourseList `json:"course_list,omitempty"`
}

func (n *CourseListRule) Kind() NodeKind { return KindCourseListRule }

// GroupRequirement requires Number of the groups in GroupList. The count is
// descriptive metadata only: every sub-rule of every group is interpreted.
type GroupRequirement struct {
	Restrictions
	Label     string     `json:"label"`
	Number    *Number    `json:"number"`
	GroupList []NodeList `json:"group_list"`
}

func (n *GroupRequirement) Kind() NodeKind { return KindGroupRequirement }

// Subset is a list of heterogeneous sub-rules sharing one label and one
// set of restrictions.
type Subset struct {
	Restrictions
	Label        string          `json:"label,omitempty"`
	Remark       RemarkText      `json:"remark,omitempty"`
	ProxyAdvice  json.RawMessage `json:"proxy_advice,omitempty"`
	Requirements NodeList        `json:"requirements"`
}

func (n *Subset) Kind() NodeKind { return KindSubset }

// RemarkNode is display text carried in the body.
type RemarkNode struct {
	Text string
}

func (n *RemarkNode) Kind() NodeKind { return KindRemark }

// ProxyAdviceNode is advisory display text; kept raw.
type ProxyAdviceNode struct {
	Raw json.RawMessage
}

func (n *ProxyAdviceNode) Kind() NodeKind { return KindProxyAdvice }

// RuleComplete marks a rule as trivially (in)complete. No course
// requirements follow from it.
type RuleComplete struct {
	Label      string `json:"label,omitempty"`
	IsComplete bool   `json:"is_complete,omitempty"`
}

func (n *RuleComplete) Kind() NodeKind { return KindRuleComplete }

// NonCourse is a requirement satisfied by something other than a course
// (an exam, a recital). Logged and skipped.
type NonCourse struct {
	Raw json.RawMessage
}

func (n *NonCourse) Kind() NodeKind { return KindNonCourse }

// Sequence splices a list of rules that the grammar emitted under a single
// kind key.
type Sequence struct {
	Items NodeList
}

func (n *Sequence) Kind() NodeKind { return KindSequence }

// UnknownNode preserves a kind the decoder does not model. Whether it is
// fatal depends on where it appears.
type UnknownNode struct {
	Name string
	Raw  json.RawMessage
}

func (n *UnknownNode) Kind() NodeKind { return KindUnknown }

// HeaderItem is one entry of a block's header list, kept raw and parsed by
// the header extractor per key.
type HeaderItem struct {
	Key string
	Raw json.RawMessage
}

// UnmarshalJSON enforces the single-key-record shape; violations are
// structural errors at the caller.
func (h *HeaderItem) UnmarshalJSON(data []byte) error {
	var kv map[string]json.RawMessage
	if err := json.Unmarshal(data, &kv); err != nil {
		return err
	}
	if len(kv) != 1 {
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		return fmt.Errorf("%w: header keys %v", ErrNotSingleKey, keys)
	}
	for k, v := range kv {
		h.Key = k
		h.Raw = append(json.RawMessage(nil), v...)
	}
	return nil
}

// HeaderConditional is the header-level if/else; both legs hold further
// header items.
type HeaderConditional struct {
	ConditionStr string        `json:"condition_str"`
	IfTrue       []HeaderItem  `json:"if_true"`
	IfFalse      *[]HeaderItem `json:"if_false,omitempty"`
}
