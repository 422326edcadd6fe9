package types

import (
	"encoding/json"
)

// Frame is one entry of the context stack accumulated during body
// interpretation. Each frame serializes to a small JSON object mirroring
// what the requirements table's context column carries.
type Frame interface {
	MarshalJSON() ([]byte, error)
	frame()
}

// BlockInfo is the block-entry frame payload. PlanInfo is set only on the
// outermost frame of a plan block.
type BlockInfo struct {
	Institution   string    `json:"institution"`
	RequirementID string    `json:"requirement_id"`
	BlockType     string    `json:"block_type"`
	BlockValue    string    `json:"block_value"`
	BlockTitle    string    `json:"block_title"`
	CatalogYears  string    `json:"catalog_years"`
	PlanInfo      *PlanInfo `json:"plan_info,omitempty"`
}

// BlockFrame marks entry into a requirement block.
type BlockFrame struct {
	Info BlockInfo
}

func (f *BlockFrame) frame() {}

func (f *BlockFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*BlockInfo{"block_info": &f.Info})
}

// BranchFrame marks entry into one leg of a body conditional. Tag is "if"
// or "else" in concise mode, "if_true" or "if_false" otherwise.
type BranchFrame struct {
	Tag       string
	Condition string
}

func (f *BranchFrame) frame() {}

func (f *BranchFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{f.Tag: f.Condition})
}

// RequirementFrame carries a labeled requirement's display name and any
// restrictions that ride along with it.
type RequirementFrame struct {
	Name        string
	MaxTransfer *MaxTransfer
	MinGrade    string // letter grade, already converted
	NumGroups   int
	NumRequired int
	Remark      string
	ProxyAdvice json.RawMessage
}

func (f *RequirementFrame) frame() {}

func (f *RequirementFrame) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if f.Name != "" {
		m["requirement_name"] = f.Name
	}
	if f.MaxTransfer != nil {
		m["maxtransfer"] = f.MaxTransfer
	}
	if f.MinGrade != "" {
		m["mingrade"] = f.MinGrade
	}
	if f.NumGroups > 0 {
		m["num_groups"] = f.NumGroups
		m["num_required"] = f.NumRequired
	}
	if f.Remark != "" {
		m["remark"] = f.Remark
	}
	if len(f.ProxyAdvice) > 0 {
		m["proxy_advice"] = f.ProxyAdvice
	}
	return json.Marshal(m)
}

// GroupFrame records the ordinal position within a group requirement.
type GroupFrame struct {
	Number    int
	NumberStr string
}

func (f *GroupFrame) frame() {}

func (f *GroupFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"group_number":     f.Number,
		"group_number_str": f.NumberStr,
	})
}

// RemarkFrame carries body remark text when remarks are enabled.
type RemarkFrame struct {
	Text string
}

func (f *RemarkFrame) frame() {}

func (f *RemarkFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"remark": f.Text})
}

// LocalFrame is the synthetic frame pushed when copy-rules splices another
// block's body into the current traversal. It carries the target's own
// identity and title.
type LocalFrame struct {
	Institution   string `json:"institution"`
	RequirementID string `json:"requirement_id"`
	Name          string `json:"requirement_name"`
}

func (f *LocalFrame) frame() {}

func (f *LocalFrame) MarshalJSON() ([]byte, error) {
	type alias LocalFrame
	return json.Marshal((*alias)(f))
}

// ContextStack is the ordered scope chain. Frame 0 is always the owning
// block's frame and carries plan-wide metadata. Extension copies, so sibling
// branches never see each other's frames.
type ContextStack []Frame

// Extend returns a new stack with the frames appended. The receiver is not
// modified.
func (s ContextStack) Extend(frames ...Frame) ContextStack {
	out := make(ContextStack, 0, len(s)+len(frames))
	out = append(out, s...)
	out = append(out, frames...)
	return out
}

// Root returns frame 0's block info, or nil for an empty stack.
func (s ContextStack) Root() *BlockInfo {
	if len(s) == 0 {
		return nil
	}
	if bf, ok := s[0].(*BlockFrame); ok {
		return &bf.Info
	}
	return nil
}

// Blocks returns the block-entry payloads in stack order.
func (s ContextStack) Blocks() []*BlockInfo {
	var out []*BlockInfo
	for _, f := range s {
		if bf, ok := f.(*BlockFrame); ok {
			out = append(out, &bf.Info)
		}
	}
	return out
}

// CurrentBlock returns the innermost block-entry payload.
func (s ContextStack) CurrentBlock() *BlockInfo {
	blocks := s.Blocks()
	if len(blocks) == 0 {
		return nil
	}
	return blocks[len(blocks)-1]
}

// BlockValues returns the block values on the stack, deduplicated with
// order preserved. Used for discriminator disambiguation.
func (s ContextStack) BlockValues() []string {
	seen := map[string]bool{}
	var out []string
	for _, info := range s.Blocks() {
		if !seen[info.BlockValue] {
			seen[info.BlockValue] = true
			out = append(out, info.BlockValue)
		}
	}
	return out
}

// RequirementIDs returns the chain of requirement ids traversed to reach
// the current point, deduplicated with order preserved.
func (s ContextStack) RequirementIDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range s {
		var id string
		switch fr := f.(type) {
		case *BlockFrame:
			id = fr.Info.RequirementID
		case *LocalFrame:
			id = fr.RequirementID
		default:
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ContainsRequirementID reports whether the id appears on any block-entry
// or copy-rules frame. This is the cycle guard's test.
func (s ContextStack) ContainsRequirementID(id string) bool {
	for _, f := range s {
		switch fr := f.(type) {
		case *BlockFrame:
			if fr.Info.RequirementID == id {
				return true
			}
		case *LocalFrame:
			if fr.RequirementID == id {
				return true
			}
		}
	}
	return false
}

// Branches returns the conditional-branch frames in stack order.
func (s ContextStack) Branches() []*BranchFrame {
	var out []*BranchFrame
	for _, f := range s {
		if bf, ok := f.(*BranchFrame); ok {
			out = append(out, bf)
		}
	}
	return out
}

// Last returns the top frame, or nil.
func (s ContextStack) Last() Frame {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}
