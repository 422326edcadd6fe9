package interp

import (
	"context"
	"strings"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// traverseList interprets a body rule list in scribed order. Remark rules
// extend the context seen by the rules that follow them, which is why list
// iteration lives here rather than in traverseBody.
func (m *Mapper) traverseList(ctx context.Context, nodes types.NodeList,
	stack types.ContextStack) error {
	for _, node := range nodes {
		if r, ok := node.(*types.RemarkNode); ok {
			key := currentKey(stack)
			if m.opts.NoRemarks {
				m.rep.Log(key.Institution, key.RequirementID, "Body remark (ignored)")
				continue
			}
			m.rep.Log(key.Institution, key.RequirementID, "Body remark")
			stack = stack.Extend(&types.RemarkFrame{Text: r.Text})
			continue
		}
		if err := m.traverseBody(ctx, node, stack); err != nil {
			return err
		}
	}
	return nil
}

// traverseBody dispatches one body rule. Side effects only: requirement and
// mapping rows via mapCourses, report lines, counter bumps. Structural
// errors are the only non-nil returns.
func (m *Mapper) traverseBody(ctx context.Context, node types.Node,
	stack types.ContextStack) error {
	key := currentKey(stack)
	m.counters.Dispatch(ctx, string(node.Kind()))

	if len(stack) > maxDepth {
		m.rep.Fail(key.Institution, key.RequirementID,
			"Runaway recursion at depth %d (abandoned)", len(stack))
		m.counters.Skip(ctx, "runaway_recursion")
		return nil
	}

	switch n := node.(type) {
	case *types.Sequence:
		return m.traverseList(ctx, n.Items, stack)

	case *types.RemarkNode:
		// Reached only when a remark arrives outside a list.
		if m.opts.NoRemarks {
			m.rep.Log(key.Institution, key.RequirementID, "Body remark (ignored)")
		} else {
			m.rep.Todo(key.Institution, key.RequirementID, "Body remark")
		}
		return nil

	case *types.BlockRule:
		return m.bodyBlock(ctx, n, stack)

	case *types.BlockTypeRule:
		return m.bodyBlockType(ctx, n, stack)

	case *types.ClassCredit:
		m.rep.Log(key.Institution, key.RequirementID, "Body class_credit")
		if n.CourseList == nil {
			// A pure size constraint; normal.
			return nil
		}
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "class_credit")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:        n.Label,
			MinClasses:   n.MinClasses,
			MaxClasses:   n.MaxClasses,
			MinCredits:   n.MinCredits,
			MaxCredits:   n.MaxCredits,
			AllowClasses: n.AllowClasses,
			AllowCredits: n.AllowCredits,
			Conjunction:  n.Conjunction,
			CourseList:   n.CourseList,
		})

	case *types.Conditional:
		m.rep.Log(key.Institution, key.RequirementID, "Body conditional")
		return m.bodyConditional(ctx, n, stack)

	case *types.CopyRules:
		return m.bodyCopyRules(ctx, n, stack)

	case *types.CourseList:
		// A bare course list as a body rule: all scribed courses required.
		m.rep.Fail(key.Institution, key.RequirementID, "Body course_list")
		frame := m.requirementFrame(key, "", nil, "course_list")
		return m.mapCourses(ctx, stack.Extend(frame), syntheticRequirement(n))

	case *types.CourseListRule:
		if n.CourseList == nil {
			m.rep.Fail(key.Institution, key.RequirementID,
				"Body course_list_rule w/o a Course List")
			return nil
		}
		m.rep.Log(key.Institution, key.RequirementID, "Body course_list_rule")
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "course_list_rule")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:      n.Label,
			CourseList: n.CourseList,
		})

	case *types.GroupRequirement:
		return m.bodyGroupRequirement(ctx, n, stack)

	case *types.Subset:
		return m.bodySubset(ctx, n, stack)

	case *types.RuleComplete:
		m.rep.Log(key.Institution, key.RequirementID, "Body rule_complete (ignored)")
		return nil

	case *types.NonCourse:
		m.rep.Log(key.Institution, key.RequirementID, "Body noncourse (ignored)")
		return nil

	case *types.ProxyAdviceNode:
		if m.opts.NoProxyAdvice {
			m.rep.Log(key.Institution, key.RequirementID, "Body proxy_advice (ignored)")
		} else {
			m.rep.Todo(key.Institution, key.RequirementID, "Body proxy_advice")
		}
		return nil

	case *types.UnknownNode:
		return structuralf(key, "unhandled body rule kind %q", n.Name)

	default:
		return structuralf(key, "unhandled body node %T", node)
	}
}

// requirementFrame builds the labeled-requirement frame for a rule,
// converting the mingrade number to a letter and substituting the
// placeholder name for unlabeled rules.
func (m *Mapper) requirementFrame(key types.BlockKey, label string,
	restrictions *types.Restrictions, ruleKind string) *types.RequirementFrame {
	frame := &types.RequirementFrame{Name: label}
	if restrictions != nil {
		frame.MaxTransfer = restrictions.MaxTransfer
		if restrictions.MinGrade != nil {
			frame.MinGrade = letterGrade(restrictions.MinGrade.Number.Float())
		}
	}
	if label != "" {
		m.rep.Label(key.Institution, key.RequirementID, label)
	} else {
		frame.Name = "Unnamed Requirement"
		if ruleKind != "copy_rules" {
			m.rep.Log(key.Institution, key.RequirementID,
				"Body %s with no label", ruleKind)
		}
	}
	return frame
}

// bodyBlock handles a reference to another block by type and value.
func (m *Mapper) bodyBlock(ctx context.Context, n *types.BlockRule,
	stack types.ContextStack) error {
	key := currentKey(stack)
	if num := n.Number.Int(); num != 1 {
		m.rep.Todo(key.Institution, key.RequirementID,
			"Body block: num_required=%d", num)
		return nil
	}
	if strings.HasPrefix(strings.ToLower(n.BlockValue), "mhc") {
		// Honors College requirements are out of scope.
		m.counters.Skip(ctx, "honors_college")
		return nil
	}
	target := m.resolveActive(ctx, n.Institution, n.BlockType, n.BlockValue, stack, "Body block")
	if target == nil {
		return nil
	}
	frame := m.requirementFrame(key, n.Label, nil, "block")
	if err := m.processBlock(ctx, target, stack.Extend(frame), nil); err != nil {
		return err
	}
	m.rep.Log(key.Institution, key.RequirementID, "Body block %s from %s",
		target.BlockType, stack.CurrentBlock().BlockType)
	return nil
}

// bodyBlockType handles a reference to all blocks of a type, in practice a
// plan's concentrations.
func (m *Mapper) bodyBlockType(ctx context.Context, n *types.BlockTypeRule,
	stack types.ContextStack) error {
	key := currentKey(stack)
	current := stack.CurrentBlock()
	if current == nil || current.PlanInfo == nil {
		m.rep.Fail(key.Institution, key.RequirementID,
			"Body blocktype: from %s block", blockTypeOf(current))
		return nil
	}
	subplans := current.PlanInfo.Subplans
	if len(subplans) == 0 {
		m.rep.Fail(key.Institution, key.RequirementID,
			"Body blocktype: plan has no active subplans")
		return nil
	}
	if n.BlockType != "CONC" {
		m.rep.Todo(key.Institution, key.RequirementID,
			"Body blocktype: required blocktype is %s (ignored)", n.BlockType)
		return nil
	}

	// Equality conditions on the enclosing branches may pin the reference
	// to specific concentrations.
	eligible := eligibleConcentrations(contextConditions(stack))
	if len(eligible) > 1 {
		m.rep.Log(key.Institution, key.RequirementID,
			"Body blocktype with multiple conditions")
	}
	if num := n.Number.Int(); num > 1 {
		m.rep.Log(key.Institution, key.RequirementID,
			"Body blocktype: %d subplans required", num)
	}

	frame := m.requirementFrame(key, n.Label, nil, "blocktype")
	for _, sp := range subplans {
		if len(eligible) > 0 && !containsString(eligible, sp.Name) {
			continue
		}
		target := sp.Block
		if target == nil {
			var err error
			target, err = m.store.FetchByIdentity(ctx, sp.BlockInfo)
			if err != nil {
				m.rep.Fail(key.Institution, key.RequirementID,
					"Body blocktype: subplan %s: %v", sp.Name, err)
				continue
			}
		}
		if err := m.processBlock(ctx, target, stack.Extend(frame), nil); err != nil {
			return err
		}
	}

	s := "s"
	if len(subplans) == 1 {
		s = ""
	}
	m.rep.Log(key.Institution, key.RequirementID,
		"Body blocktype: %d subplan%s", len(subplans), s)
	return nil
}

// bodyConditional enters each leg of a body if/else under a branch frame.
// Body branches get one frame per leg; the header extractor tags per
// qualifier list instead, since its output is columnar.
func (m *Mapper) bodyConditional(ctx context.Context, n *types.Conditional,
	stack types.ContextStack) error {
	ifFrame := &types.BranchFrame{Tag: "if_true", Condition: n.ConditionStr}
	elseFrame := &types.BranchFrame{Tag: "if_false", Condition: n.ConditionStr}
	if m.opts.ConciseConditionals {
		ifFrame = &types.BranchFrame{Tag: "if", Condition: n.ConditionStr}
		elseFrame = &types.BranchFrame{Tag: "else", Condition: ""}
	}

	key := currentKey(stack)
	if expr := normalizeExpression(n.ConditionStr, false); expr != "" {
		m.rep.Condition(key.Institution, key.RequirementID, expr)
	}

	if len(n.IfTrue) > 0 {
		if err := m.traverseList(ctx, n.IfTrue, stack.Extend(ifFrame)); err != nil {
			return err
		}
	}
	if n.IfFalse != nil {
		if err := m.traverseList(ctx, *n.IfFalse, stack.Extend(elseFrame)); err != nil {
			return err
		}
	}
	return nil
}

// bodyCopyRules splices another block's body into the current traversal.
func (m *Mapper) bodyCopyRules(ctx context.Context, n *types.CopyRules,
	stack types.ContextStack) error {
	key := currentKey(stack)
	target, tree := m.copyTarget(ctx, key, n.RequirementID, stack, "Body copy_rules")
	if tree == nil {
		return nil
	}
	frame := m.requirementFrame(key, n.Label, nil, "copy_rules")
	local := &types.LocalFrame{
		Institution:   key.Institution,
		RequirementID: target.RequirementID,
		Name:          target.Title,
	}
	if err := m.traverseList(ctx, tree.BodyList, stack.Extend(frame, local)); err != nil {
		return err
	}
	m.rep.Log(key.Institution, key.RequirementID, "Body copy_rules")
	return nil
}

// bodyGroupRequirement interprets every sub-rule of every group. The
// required count is descriptive only; no combinatorial selection happens.
func (m *Mapper) bodyGroupRequirement(ctx context.Context, n *types.GroupRequirement,
	stack types.ContextStack) error {
	key := currentKey(stack)
	numGroups := len(n.GroupList)
	numRequired := n.Number.Int()

	frame := m.requirementFrame(key, n.Label, &n.Restrictions, "group_requirement")
	frame.NumGroups = numGroups
	frame.NumRequired = numRequired
	// A scribed label that only restates the group structure gets replaced
	// with a uniformly-phrased description.
	if !labelHasContent(frame.Name) {
		frame.Name = formatGroupDescription(numGroups, numRequired)
	}
	groupStack := stack.Extend(frame)

	for i, group := range n.GroupList {
		groupFrame := &types.GroupFrame{
			Number:    i + 1,
			NumberStr: groupOrdinal(i+1, numGroups),
		}
		itemStack := groupStack.Extend(groupFrame)
		for _, item := range group {
			if err := m.groupItem(ctx, item, itemStack); err != nil {
				return err
			}
		}
	}
	m.rep.Log(key.Institution, key.RequirementID, "Body group_requirement")
	return nil
}

func (m *Mapper) groupItem(ctx context.Context, item types.Node,
	stack types.ContextStack) error {
	key := currentKey(stack)
	m.counters.Dispatch(ctx, "group_"+string(item.Kind()))

	switch n := item.(type) {
	case *types.BlockRule:
		if num := n.Number.Int(); num > 1 {
			m.rep.Todo(key.Institution, key.RequirementID,
				"Group block: num_required=%d", num)
			return nil
		}
		if n.Label != "" {
			m.rep.Label(key.Institution, key.RequirementID, n.Label)
		}
		target := m.resolveActive(ctx, n.Institution, n.BlockType, n.BlockValue,
			stack, "Group block")
		if target == nil {
			return nil
		}
		if err := m.processBlock(ctx, target, stack, nil); err != nil {
			return err
		}
		m.rep.Log(key.Institution, key.RequirementID, "Group block %s", target.BlockType)
		return nil

	case *types.BlockTypeRule:
		m.rep.Todo(key.Institution, key.RequirementID, "Group blocktype (ignored)")
		return nil

	case *types.ClassCredit:
		m.rep.Log(key.Institution, key.RequirementID, "Group class_credit")
		if n.CourseList == nil {
			return nil
		}
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "class_credit")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:        n.Label,
			MinClasses:   n.MinClasses,
			MaxClasses:   n.MaxClasses,
			MinCredits:   n.MinCredits,
			MaxCredits:   n.MaxCredits,
			AllowClasses: n.AllowClasses,
			AllowCredits: n.AllowCredits,
			Conjunction:  n.Conjunction,
			CourseList:   n.CourseList,
		})

	case *types.CourseListRule:
		if n.CourseList == nil {
			m.rep.Fail(key.Institution, key.RequirementID,
				"Group course_list_rule w/o a Course List")
			return nil
		}
		m.rep.Log(key.Institution, key.RequirementID, "Group course_list_rule")
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "course_list_rule")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:      n.Label,
			CourseList: n.CourseList,
		})

	case *types.GroupRequirement:
		m.rep.Log(key.Institution, key.RequirementID, "Body nested group_requirement")
		return m.bodyGroupRequirement(ctx, n, stack)

	case *types.NonCourse:
		m.rep.Log(key.Institution, key.RequirementID, "Group noncourse (ignored)")
		return nil

	case *types.RuleComplete:
		m.rep.Todo(key.Institution, key.RequirementID, "Group rule_complete")
		return nil

	case *types.Sequence:
		for _, sub := range n.Items {
			if err := m.groupItem(ctx, sub, stack); err != nil {
				return err
			}
		}
		return nil

	default:
		return structuralf(key, "unexpected group rule kind %q", item.Kind())
	}
}

// bodySubset interprets a list of heterogeneous sub-rules sharing one
// restriction/label frame. Subset-only qualifier kinds are logged and
// skipped rather than treated as structural errors.
func (m *Mapper) bodySubset(ctx context.Context, n *types.Subset,
	stack types.ContextStack) error {
	key := currentKey(stack)
	m.rep.Log(key.Institution, key.RequirementID, "Body subset")

	frame := &types.RequirementFrame{Name: n.Label}
	frame.MaxTransfer = n.MaxTransfer
	if n.MinGrade != nil {
		frame.MinGrade = letterGrade(n.MinGrade.Number.Float())
	}
	if n.Label != "" {
		m.rep.Label(key.Institution, key.RequirementID, n.Label)
	} else {
		frame.Name = "No requirement name available"
		m.rep.Fail(key.Institution, key.RequirementID, "Subset with no label")
	}
	if n.Remark != "" {
		if m.opts.NoRemarks {
			m.rep.Log(key.Institution, key.RequirementID, "Subset remark (ignored)")
		} else {
			frame.Remark = string(n.Remark)
			m.rep.Log(key.Institution, key.RequirementID, "Subset remark")
		}
	}
	if len(n.ProxyAdvice) > 0 && !m.opts.NoProxyAdvice {
		frame.ProxyAdvice = n.ProxyAdvice
		m.rep.Log(key.Institution, key.RequirementID, "Subset proxy_advice")
	}
	subsetStack := stack.Extend(frame)

	for _, item := range n.Requirements {
		if err := m.subsetItem(ctx, item, subsetStack, frame); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) subsetItem(ctx context.Context, item types.Node,
	stack types.ContextStack, subsetFrame *types.RequirementFrame) error {
	key := currentKey(stack)
	m.counters.Dispatch(ctx, "subset_"+string(item.Kind()))

	switch n := item.(type) {
	case *types.BlockRule:
		if num := n.Number.Int(); num != 1 {
			m.rep.Fail(key.Institution, key.RequirementID,
				"Subset block: num_required=%d", num)
			return nil
		}
		if n.Label != "" {
			m.rep.Label(key.Institution, key.RequirementID, n.Label)
		}
		target := m.resolveActive(ctx, n.Institution, n.BlockType, n.BlockValue,
			stack, "Subset block")
		if target == nil {
			return nil
		}
		if err := m.processBlock(ctx, target, stack, nil); err != nil {
			return err
		}
		m.rep.Log(key.Institution, key.RequirementID, "Subset block %s from %s",
			target.BlockType, stack.CurrentBlock().BlockType)
		return nil

	case *types.BlockTypeRule:
		m.rep.Todo(key.Institution, key.RequirementID, "Subset blocktype (ignored)")
		return nil

	case *types.Conditional:
		m.rep.Log(key.Institution, key.RequirementID, "Subset conditional")
		return m.bodyConditional(ctx, n, stack)

	case *types.CopyRules:
		target, tree := m.copyTarget(ctx, key, n.RequirementID, stack, "Subset copy_rules")
		if tree == nil {
			return nil
		}
		local := &types.LocalFrame{
			Institution:   key.Institution,
			RequirementID: target.RequirementID,
			Name:          target.Title,
		}
		if err := m.traverseList(ctx, tree.BodyList, stack.Extend(local)); err != nil {
			return err
		}
		m.rep.Log(key.Institution, key.RequirementID, "Subset copy_rules")
		return nil

	case *types.CourseListRule:
		if n.CourseList == nil {
			m.rep.Fail(key.Institution, key.RequirementID,
				"Subset course_list_rule w/o a course_list")
			return nil
		}
		m.rep.Log(key.Institution, key.RequirementID, "Subset course_list_rule")
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "course_list_rule")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:      n.Label,
			CourseList: n.CourseList,
		})

	case *types.ClassCredit:
		m.rep.Log(key.Institution, key.RequirementID, "Subset class_credit")
		if n.Label != "" {
			m.rep.Label(key.Institution, key.RequirementID, n.Label)
		} else {
			m.rep.Todo(key.Institution, key.RequirementID, "Subset class_credit with no label")
		}
		if n.CourseList == nil {
			return nil
		}
		frame := m.requirementFrame(key, n.Label, &n.Restrictions, "class_credit")
		return m.mapCourses(ctx, stack.Extend(frame), &requirement{
			Label:        n.Label,
			MinClasses:   n.MinClasses,
			MaxClasses:   n.MaxClasses,
			MinCredits:   n.MinCredits,
			MaxCredits:   n.MaxCredits,
			AllowClasses: n.AllowClasses,
			AllowCredits: n.AllowCredits,
			Conjunction:  n.Conjunction,
			CourseList:   n.CourseList,
		})

	case *types.GroupRequirement:
		if err := m.bodyGroupRequirement(ctx, n, stack); err != nil {
			return err
		}
		m.rep.Log(key.Institution, key.RequirementID, "Subset group_requirement")
		return nil

	case *types.NonCourse:
		m.rep.Log(key.Institution, key.RequirementID, "Subset noncourse (ignored)")
		return nil

	case *types.ProxyAdviceNode:
		if subsetFrame.ProxyAdvice != nil {
			m.rep.Anomaly(key.Institution, key.RequirementID,
				"Subset context with repeated proxy_advice")
			return nil
		}
		if m.opts.NoProxyAdvice {
			m.rep.Log(key.Institution, key.RequirementID, "Subset proxy_advice (ignored)")
		} else {
			subsetFrame.ProxyAdvice = n.Raw
			m.rep.Log(key.Institution, key.RequirementID, "Subset proxy_advice")
		}
		return nil

	case *types.Sequence:
		for _, sub := range n.Items {
			if err := m.subsetItem(ctx, sub, stack, subsetFrame); err != nil {
				return err
			}
		}
		return nil

	case *types.UnknownNode:
		// Qualifiers like maxpassfail, maxperdisc, mingpa, minspread, and
		// share appear only inside subsets and carry no course requirements.
		m.rep.Log(key.Institution, key.RequirementID, "Subset %s (ignored)", n.Name)
		m.counters.Skip(ctx, "subset_"+n.Name)
		return nil

	default:
		m.rep.Anomaly(key.Institution, key.RequirementID,
			"Unhandled Subset kind %q", item.Kind())
		return nil
	}
}

// currentKey returns the innermost block identity on the stack.
func currentKey(stack types.ContextStack) types.BlockKey {
	if info := stack.CurrentBlock(); info != nil {
		return types.BlockKey{Institution: info.Institution, RequirementID: info.RequirementID}
	}
	return types.BlockKey{}
}

func blockTypeOf(info *types.BlockInfo) string {
	if info == nil {
		return "unknown"
	}
	return info.BlockType
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
