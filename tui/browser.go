package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"l5xkit/project"
	"l5xkit/tag"
)

type nodeKind int

const (
	nodeScope nodeKind = iota
	nodeTag
	nodeValue
)

// nodeRef is the reference payload attached to every tree node.
type nodeRef struct {
	kind     nodeKind
	tag      *tag.Tag
	data     tag.Data
	label    string
	expanded bool
}

// Browser is the project tag browser application.
type Browser struct {
	app       *tview.Application
	pages     *tview.Pages
	path      string
	proj      *project.Project
	flex      *tview.Flex
	filter    *tview.InputField
	tree      *tview.TreeView
	treeRoot  *tview.TreeNode
	details   *tview.TextView
	statusBar *tview.TextView

	filterText string
	dirty      bool
}

// NewBrowser loads the project file and builds the browser UI.
func NewBrowser(path string) (*Browser, error) {
	proj, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	b := &Browser{
		app:  tview.NewApplication(),
		path: path,
		proj: proj,
	}
	b.setupUI()
	return b, nil
}

// Run starts the application and blocks until quit.
func (b *Browser) Run() error {
	debugLog("browsing %s", b.path)
	return b.app.SetRoot(b.pages, true).Run()
}

func (b *Browser) setupUI() {
	b.filter = tview.NewInputField().
		SetLabel("Filter: ").
		SetFieldWidth(30)
	b.filter.SetChangedFunc(func(text string) {
		b.filterText = strings.ToLower(text)
		b.loadTree()
	})
	b.filter.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyEnter {
			b.app.SetFocus(b.tree)
			return nil
		}
		return event
	})

	b.treeRoot = tview.NewTreeNode(b.proj.TargetName()).SetColor(ColorAccent)
	b.tree = tview.NewTreeView().
		SetRoot(b.treeRoot).
		SetCurrentNode(b.treeRoot)
	b.tree.SetSelectedFunc(b.onNodeSelected)
	b.tree.SetChangedFunc(func(node *tview.TreeNode) {
		b.showDetails(node)
	})
	b.tree.SetInputCapture(b.handleTreeKeys)
	b.tree.SetBorder(true).SetTitle(" Scopes/Tags ").SetBorderColor(ColorBorder).SetTitleColor(ColorAccent)

	b.details = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetTextColor(ColorText)
	b.details.SetBorder(true).SetTitle(" Details ").SetBorderColor(ColorBorder).SetTitleColor(ColorAccent)
	b.details.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyTab {
			b.app.SetFocus(b.tree)
			return nil
		}
		return event
	})

	b.statusBar = tview.NewTextView().SetDynamicColors(true)

	content := tview.NewFlex().
		AddItem(b.tree, 0, 1, true).
		AddItem(b.details, 44, 0, false)

	b.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.filter, 1, 0, false).
		AddItem(content, 0, 1, true).
		AddItem(b.statusBar, 1, 0, false)

	b.pages = tview.NewPages().AddPage("main", b.flex, true, true)

	b.loadTree()
	b.updateStatus()
}

func (b *Browser) handleTreeKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case '/':
		b.app.SetFocus(b.filter)
		return nil
	case 'c':
		b.filter.SetText("")
		return nil
	case 'w':
		b.showWriteDialog(b.tree.GetCurrentNode())
		return nil
	case 'e':
		b.showDescriptionDialog(b.tree.GetCurrentNode())
		return nil
	case 'x':
		b.clearDescription(b.tree.GetCurrentNode())
		return nil
	case 's':
		b.save()
		return nil
	case '?':
		b.showHelp()
		return nil
	case 'Q':
		b.app.Stop()
		return nil
	}
	if event.Key() == tcell.KeyTab {
		b.app.SetFocus(b.details)
		return nil
	}
	return event
}

// loadTree rebuilds the scope and tag nodes, applying the current filter.
// Value nodes underneath tags are populated lazily on expansion.
func (b *Browser) loadTree() {
	b.treeRoot.ClearChildren()

	if scope, err := b.proj.Controller(); err == nil {
		b.treeRoot.AddChild(b.scopeNode("Controller: "+scope.Name(), scope))
	}
	for _, name := range b.proj.ProgramNames() {
		scope, err := b.proj.Program(name)
		if err != nil {
			continue
		}
		b.treeRoot.AddChild(b.scopeNode("Program: "+name, scope))
	}
	b.treeRoot.SetExpanded(true)
}

func (b *Browser) scopeNode(label string, scope *tag.Scope) *tview.TreeNode {
	node := tview.NewTreeNode(MarkerScope + label).
		SetColor(ColorBorder).
		SetReference(&nodeRef{kind: nodeScope, label: label})
	for _, name := range scope.TagNames() {
		if b.filterText != "" && !strings.Contains(strings.ToLower(name), b.filterText) {
			continue
		}
		tg, err := scope.Tag(name)
		if err != nil {
			continue
		}
		node.AddChild(b.tagNode(tg))
	}
	node.SetExpanded(true)
	return node
}

func (b *Browser) tagNode(tg *tag.Tag) *tview.TreeNode {
	label := tg.Name()
	switch tg.TagType() {
	case tag.TypeAlias:
		label += " [gray]-> " + tg.AliasFor() + "[-]"
	case tag.TypeConsumed:
		label += " [gray](consumed)[-]"
	default:
		label += " [gray]" + tg.DataType() + "[-]"
	}
	return tview.NewTreeNode(label).
		SetColor(ColorText).
		SetReference(&nodeRef{kind: nodeTag, tag: tg, label: tg.Name()})
}

func (b *Browser) onNodeSelected(node *tview.TreeNode) {
	ref, ok := node.GetReference().(*nodeRef)
	if !ok {
		node.SetExpanded(!node.IsExpanded())
		return
	}
	if ref.kind == nodeScope {
		node.SetExpanded(!node.IsExpanded())
		return
	}
	if !ref.expanded {
		b.expandNode(node, ref)
		ref.expanded = true
	}
	node.SetExpanded(!node.IsExpanded())
	b.showDetails(node)
}

// expandNode populates a tag or value node's children from the document.
func (b *Browser) expandNode(node *tview.TreeNode, ref *nodeRef) {
	d := ref.data
	if d == nil && ref.tag != nil {
		var err error
		d, err = ref.tag.Data()
		if err != nil {
			return
		}
		ref.data = d
	}
	if d == nil {
		return
	}

	switch v := d.(type) {
	case *tag.Structure:
		for _, name := range v.Names() {
			m, err := v.Member(name)
			if err != nil {
				continue
			}
			node.AddChild(b.valueNode(name, m))
		}
	case *tag.Array:
		for i := 0; i < v.Len(); i++ {
			e, err := v.Index(i)
			if err != nil {
				continue
			}
			node.AddChild(b.valueNode("["+strconv.Itoa(i)+"]", e))
		}
	case *tag.Integer:
		for i := 0; i < v.Width(); i++ {
			bit, err := v.Bit(i)
			if err != nil {
				continue
			}
			node.AddChild(b.valueNode("."+strconv.Itoa(i), bit))
		}
	}
}

func (b *Browser) valueNode(label string, d tag.Data) *tview.TreeNode {
	switch d.(type) {
	case *tag.Structure:
		label = MarkerStructure + label
	case *tag.Array:
		label = MarkerArray + label
	}
	return tview.NewTreeNode(label).
		SetColor(ColorText).
		SetReference(&nodeRef{kind: nodeValue, data: d, label: label})
}

func (b *Browser) showDetails(node *tview.TreeNode) {
	if node == nil {
		return
	}
	ref, ok := node.GetReference().(*nodeRef)
	if !ok || ref.kind == nodeScope {
		b.details.SetText("")
		return
	}

	var sb strings.Builder
	if ref.tag != nil {
		tg := ref.tag
		fmt.Fprintf(&sb, "[yellow]Name:[-] %s\n", tg.Name())
		fmt.Fprintf(&sb, "[yellow]Tag Type:[-] %s\n", tg.TagType())
		if tg.DataType() != "" {
			fmt.Fprintf(&sb, "[yellow]Data Type:[-] %s\n", tg.DataType())
		}
		if tg.AliasFor() != "" {
			fmt.Fprintf(&sb, "[yellow]Alias For:[-] %s\n", tg.AliasFor())
		}
		if text, ok := tg.Description(); ok {
			fmt.Fprintf(&sb, "[yellow]Description:[-] %s\n", text)
		}
		if tg.TagType() == tag.TypeConsumed {
			if p, err := tg.Producer(); err == nil {
				fmt.Fprintf(&sb, "[yellow]Producer:[-] %s\n", p)
			}
			if r, err := tg.RemoteTag(); err == nil {
				fmt.Fprintf(&sb, "[yellow]Remote Tag:[-] %s\n", r)
			}
		}
		if v, err := tg.Value(); err == nil {
			fmt.Fprintf(&sb, "\n[yellow]Value:[-]\n%s\n", formatValue(v))
		}
	} else if ref.data != nil {
		d := ref.data
		fmt.Fprintf(&sb, "[yellow]Member:[-] %s\n", ref.label)
		if op := d.Operand(); op != "" {
			fmt.Fprintf(&sb, "[yellow]Operand:[-] %s\n", op)
		}
		if text, err := d.Description(); err == nil && text != "" {
			fmt.Fprintf(&sb, "[yellow]Description:[-] %s\n", text)
		}
		if v, err := d.Value(); err == nil {
			fmt.Fprintf(&sb, "\n[yellow]Value:[-]\n%s\n", formatValue(v))
		} else {
			fmt.Fprintf(&sb, "\n[red]%v[-]\n", err)
		}
	}
	b.details.SetText(sb.String())
}

// target resolves the writable value behind a node: the node's own data, or
// the tag's top-level data for unexpanded tag nodes.
func target(ref *nodeRef) tag.Data {
	if ref == nil {
		return nil
	}
	if ref.data != nil {
		return ref.data
	}
	if ref.tag != nil {
		if d, err := ref.tag.Data(); err == nil {
			return d
		}
	}
	return nil
}

func (b *Browser) showWriteDialog(node *tview.TreeNode) {
	if node == nil {
		return
	}
	ref, _ := node.GetReference().(*nodeRef)
	d := target(ref)
	if d == nil {
		b.setStatus("[red]Selected node has no writable value[-]")
		return
	}
	switch d.(type) {
	case *tag.Structure, *tag.Array:
		b.setStatus("[red]Select a scalar member or element to write[-]")
		return
	}

	current := ""
	if v, err := d.Value(); err == nil {
		current = fmt.Sprintf("%v", v)
	}

	form := tview.NewForm()
	form.AddInputField("Value", current, 20, nil, nil)
	form.AddButton("Write", func() {
		text := form.GetFormItem(0).(*tview.InputField).GetText()
		v, err := parseValue(text)
		if err == nil {
			err = d.SetValue(v)
		}
		if err != nil {
			b.setStatus("[red]Write failed: " + err.Error() + "[-]")
		} else {
			b.dirty = true
			b.setStatus("Wrote " + text)
			b.showDetails(node)
		}
		b.closeDialog()
	})
	form.AddButton("Cancel", func() { b.closeDialog() })
	form.SetBorder(true).SetTitle(" Write Value ")
	b.showDialog(form, 40, 7)
}

func (b *Browser) showDescriptionDialog(node *tview.TreeNode) {
	if node == nil {
		return
	}
	ref, _ := node.GetReference().(*nodeRef)
	if ref == nil || ref.kind == nodeScope {
		return
	}

	current := ""
	if ref.kind == nodeTag {
		current, _ = ref.tag.Description()
	} else if ref.data != nil {
		current, _ = ref.data.Description()
	}

	form := tview.NewForm()
	form.AddInputField("Description", current, 30, nil, nil)
	form.AddButton("Set", func() {
		text := form.GetFormItem(0).(*tview.InputField).GetText()
		var err error
		if ref.kind == nodeTag {
			ref.tag.SetDescription(text)
		} else {
			err = ref.data.SetDescription(text)
		}
		if err != nil {
			b.setStatus("[red]" + err.Error() + "[-]")
		} else {
			b.dirty = true
			b.setStatus("Description updated")
			b.showDetails(node)
		}
		b.closeDialog()
	})
	form.AddButton("Cancel", func() { b.closeDialog() })
	form.SetBorder(true).SetTitle(" Edit Description ")
	b.showDialog(form, 50, 7)
}

func (b *Browser) clearDescription(node *tview.TreeNode) {
	if node == nil {
		return
	}
	ref, _ := node.GetReference().(*nodeRef)
	if ref == nil || ref.kind == nodeScope {
		return
	}
	if ref.kind == nodeTag {
		ref.tag.ClearDescription()
	} else if ref.data != nil {
		if err := ref.data.ClearDescription(); err != nil {
			b.setStatus("[red]" + err.Error() + "[-]")
			return
		}
	}
	b.dirty = true
	b.setStatus("Description removed")
	b.showDetails(node)
}

func (b *Browser) save() {
	if err := b.proj.Write(b.path); err != nil {
		b.setStatus("[red]Save failed: " + err.Error() + "[-]")
		return
	}
	b.dirty = false
	b.setStatus("Saved " + b.path)
}

func (b *Browser) showHelp() {
	help := tview.NewTextView().SetText(HelpText).SetTextColor(ColorText)
	help.SetBorder(true).SetTitle(" Help ")
	help.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		b.closeDialog()
		return nil
	})
	b.showDialog(help, 50, 26)
}

func (b *Browser) showDialog(p tview.Primitive, width, height int) {
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
	b.pages.AddPage("dialog", modal, true, true)
	b.app.SetFocus(p)
}

func (b *Browser) closeDialog() {
	b.pages.RemovePage("dialog")
	b.app.SetFocus(b.tree)
}

func (b *Browser) setStatus(text string) {
	b.statusBar.SetText(text + "  " + b.dirtyMarker())
}

func (b *Browser) updateStatus() {
	b.setStatus(fmt.Sprintf("%s  [gray]%d programs[-]", b.path, len(b.proj.ProgramNames())))
}

func (b *Browser) dirtyMarker() string {
	if b.dirty {
		return "[yellow]*modified[-]"
	}
	return ""
}

// parseValue interprets dialog input: integers first, floats second.
func parseValue(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse %q as a number", s)
}

func formatValue(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	switch val := v.(type) {
	case map[string]interface{}:
		return formatMapValue(val, 0)
	case []interface{}:
		if len(val) == 0 {
			return "[]"
		}
		var sb strings.Builder
		sb.WriteString("[")
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			if i >= 8 {
				sb.WriteString(fmt.Sprintf("... (%d more)", len(val)-8))
				break
			}
			sb.WriteString(formatValue(elem))
		}
		sb.WriteString("]")
		return sb.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatMapValue(m map[string]interface{}, indent int) string {
	if len(m) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	prefix := strings.Repeat("  ", indent)

	sb.WriteString("{\n")
	for i, k := range keys {
		v := m[k]
		sb.WriteString(prefix)
		sb.WriteString("  ")
		sb.WriteString(k)
		sb.WriteString(": ")
		if nested, ok := v.(map[string]interface{}); ok {
			sb.WriteString(formatMapValue(nested, indent+1))
		} else {
			sb.WriteString(formatValue(v))
		}
		if i < len(keys)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(prefix)
	sb.WriteString("}")

	return sb.String()
}
