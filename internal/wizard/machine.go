package wizard

// Step 向导步骤，从 1 开始
type Step int

// Action 导航动作
type Action int

const (
	ActionNext Action = iota + 1
	ActionBack
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionNext:
		return "next"
	case ActionBack:
		return "back"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Transition 转移表中的一条边，Guarded 的边要求当前步骤校验通过
type Transition struct {
	To      Step
	Guarded bool
}

// Table 步骤 × 动作 → 转移，缺失的条目表示该步骤不允许此动作
type Table map[Step]map[Action]Transition

// Transitions 构建转移表：next 需校验且停在最后一步，back 不低于第一步，skip 只存在于指定步骤
func (d *Definition) Transitions() Table {
	n := d.Total()
	table := make(Table, n)
	for s := Step(1); s <= Step(n); s++ {
		next := s + 1
		if next > Step(n) {
			next = Step(n)
		}
		back := s - 1
		if back < 1 {
			back = 1
		}

		edges := map[Action]Transition{
			ActionNext: {To: next, Guarded: true},
			ActionBack: {To: back},
		}
		if d.SkipStep != 0 && s == d.SkipStep && s < Step(n) {
			edges[ActionSkip] = Transition{To: s + 1}
		}
		table[s] = edges
	}
	return table
}

// Controls 当前步骤应展示的按钮
type Controls struct {
	Primary  string `json:"primary"`
	ShowBack bool   `json:"showBack"`
	ShowSkip bool   `json:"showSkip"`
}

// Result 一次导航的结果
type Result struct {
	From    Step          `json:"from"`
	To      Step          `json:"to"`
	Moved   bool          `json:"moved"`
	Invalid []FieldError  `json:"invalid,omitempty"`
	Summary []SummaryLine `json:"summary,omitempty"`
}

// Machine 驱动一次向导会话，非并发安全
type Machine struct {
	def     *Definition
	table   Table
	step    Step
	summary []SummaryLine
	skipped map[Step]bool
}

// NewMachine 从第一步开始
func NewMachine(def *Definition) *Machine {
	return &Machine{def: def, table: def.Transitions(), step: 1, skipped: map[Step]bool{}}
}

func (m *Machine) Definition() *Definition { return m.def }
func (m *Machine) Step() Step              { return m.step }
func (m *Machine) Total() int              { return m.def.Total() }
func (m *Machine) AtTerminal() bool        { return m.step == Step(m.def.Total()) }

// Summary 最近一次进入复核步骤时生成的摘要
func (m *Machine) Summary() []SummaryLine { return m.summary }

// Progress 进度百分比
func (m *Machine) Progress() int {
	return int(m.step) * 100 / m.def.Total()
}

func (m *Machine) Controls() Controls {
	c := Controls{Primary: "next", ShowBack: m.step > 1}
	if m.AtTerminal() {
		c.Primary = m.def.FinalAction
	}
	_, c.ShowSkip = m.table[m.step][ActionSkip]
	return c
}

// Next 校验当前步骤，通过则前进；失败时停留在原步骤并返回 *ValidationError
func (m *Machine) Next(form Form) (Result, error) {
	return m.fire(ActionNext, form)
}

// Back 后退一步，不低于第一步
func (m *Machine) Back() Result {
	res, _ := m.fire(ActionBack, nil)
	return res
}

// Skip 跳过指定步骤且不做校验，其他步骤上无效
func (m *Machine) Skip(form Form) Result {
	res, _ := m.fire(ActionSkip, form)
	return res
}

// Skipped 该步骤是否被跳过
func (m *Machine) Skipped(s Step) bool { return m.skipped[s] }

// Reset 回到第一步并清除摘要
func (m *Machine) Reset() {
	m.step = 1
	m.summary = nil
	m.skipped = map[Step]bool{}
}

// Revalidate 重新校验最终步骤之前所有未跳过的步骤。
// 发现不合格的步骤时退回到该步骤并返回 *ValidationError。
func (m *Machine) Revalidate(form Form) error {
	for s := Step(1); s < Step(m.def.Total()); s++ {
		if m.skipped[s] {
			continue
		}
		if errs := Validate(m.def, s, form); len(errs) > 0 {
			m.step = s
			m.summary = nil
			return &ValidationError{Step: s, Fields: errs}
		}
	}
	return nil
}

func (m *Machine) fire(action Action, form Form) (Result, error) {
	res := Result{From: m.step, To: m.step}

	tr, ok := m.table[m.step][action]
	if !ok {
		return res, nil
	}
	if tr.Guarded {
		if errs := Validate(m.def, m.step, form); len(errs) > 0 {
			res.Invalid = errs
			return res, &ValidationError{Step: m.step, Fields: errs}
		}
	}

	res.To = tr.To
	res.Moved = tr.To != m.step
	switch {
	case action == ActionSkip:
		m.skipped[m.step] = true
	case tr.Guarded:
		delete(m.skipped, m.step)
	}
	m.step = tr.To

	if res.Moved && m.AtTerminal() && m.def.Summarize != nil {
		m.summary = m.def.Summarize(form)
	}
	if m.AtTerminal() {
		res.Summary = m.summary
	}
	return res, nil
}
