// Package project provides top-level access to an L5X export: loading and
// serialization, the controller and program tag scopes, and the project-wide
// data type registry consumed during structure construction.
package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"l5xkit/tag"
)

// ErrInvalidFile indicates the given file was not a proper L5X export.
var ErrInvalidFile = errors.New("not a valid L5X export")

// Project is the top-level container for an entire Logix project.
type Project struct {
	doc        *etree.Document
	root       *etree.Element
	controller *etree.Element
}

// Load reads and validates an L5X file.
func Load(path string) (*Project, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("XML parsing error: %v: %w", err, ErrInvalidFile)
	}
	return fromDocument(doc)
}

// Parse reads and validates an L5X document from memory.
func Parse(data []byte) (*Project, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("XML parsing error: %v: %w", err, ErrInvalidFile)
	}
	return fromDocument(doc)
}

func fromDocument(doc *etree.Document) (*Project, error) {
	root := doc.Root()
	if root == nil || root.Tag != "RSLogix5000Content" {
		return nil, fmt.Errorf("missing RSLogix5000Content root: %w", ErrInvalidFile)
	}
	ctl := root.SelectElement("Controller")
	if ctl == nil {
		return nil, fmt.Errorf("missing Controller element: %w", ErrInvalidFile)
	}
	debugLog("loaded project target=%q schema=%q", root.SelectAttrValue("TargetName", ""),
		root.SelectAttrValue("SchemaRevision", ""))
	return &Project{doc: doc, root: root, controller: ctl}, nil
}

// New builds a minimal empty project skeleton: a controller with empty
// DataTypes and Tags sections and a single MainProgram.
func New(controllerName string) *Project {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement("RSLogix5000Content")
	root.CreateAttr("SchemaRevision", "1.0")
	root.CreateAttr("SoftwareRevision", "")
	root.CreateAttr("TargetName", controllerName)
	root.CreateAttr("TargetType", "Controller")
	root.CreateAttr("ContainsContext", "false")
	root.CreateAttr("Owner", "Default")
	root.CreateAttr("ExportDate", time.Now().Format("Mon Jan 02 15:04:05 2006"))
	root.CreateAttr("ExportOptions", "DecoratedData ForceProtectedEncoding AllProjDocTrans")

	ctl := root.CreateElement("Controller")
	ctl.CreateAttr("Name", controllerName)
	ctl.CreateElement("DataTypes")
	ctl.CreateElement("Tags")
	programs := ctl.CreateElement("Programs")

	main := programs.CreateElement("Program")
	main.CreateAttr("Name", "MainProgram")
	main.CreateElement("Tags")

	return &Project{doc: doc, root: root, controller: ctl}
}

// Write serializes the project to a file.
func (p *Project) Write(path string) error {
	if err := p.doc.WriteToFile(path); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Bytes serializes the project to memory.
func (p *Project) Bytes() ([]byte, error) {
	return p.doc.WriteToBytes()
}

// Root returns the document root element.
func (p *Project) Root() *etree.Element { return p.root }

// SchemaRevision returns the L5X schema revision the file was written with.
func (p *Project) SchemaRevision() string { return p.root.SelectAttrValue("SchemaRevision", "") }

// TargetType returns the kind of export this file is.
func (p *Project) TargetType() string { return p.root.SelectAttrValue("TargetType", "") }

// TargetName returns the name of the export target.
func (p *Project) TargetName() string { return p.root.SelectAttrValue("TargetName", "") }

// ContainsContext returns the raw ContainsContext attribute.
func (p *Project) ContainsContext() string { return p.root.SelectAttrValue("ContainsContext", "") }

// Owner returns the project author/owner.
func (p *Project) Owner() string { return p.root.SelectAttrValue("Owner", "") }

// ExportOptions returns the export options string.
func (p *Project) ExportOptions() string { return p.root.SelectAttrValue("ExportOptions", "") }

// ControllerName returns the controller's name.
func (p *Project) ControllerName() string { return p.controller.SelectAttrValue("Name", "") }

// Controller returns the controller-wide tag scope.
func (p *Project) Controller() (*tag.Scope, error) {
	return tag.NewScope(p.controller, nil)
}

// ProgramNames lists the project's programs in document order.
func (p *Project) ProgramNames() []string {
	var names []string
	if programs := p.controller.SelectElement("Programs"); programs != nil {
		for _, e := range programs.SelectElements("Program") {
			names = append(names, e.SelectAttrValue("Name", ""))
		}
	}
	return names
}

// Program returns the named program's tag scope.
func (p *Project) Program(name string) (*tag.Scope, error) {
	if e := p.findProgram(name); e != nil {
		return tag.NewScope(e, nil)
	}
	return nil, fmt.Errorf("program %q: %w", name, tag.ErrNotFound)
}

// AddProgram creates a new empty program and returns its tag scope.
func (p *Project) AddProgram(name string) (*tag.Scope, error) {
	programs := p.controller.SelectElement("Programs")
	if programs == nil {
		programs = p.controller.CreateElement("Programs")
	}
	if p.findProgram(name) != nil {
		return nil, fmt.Errorf("program %q already exists: %w", name, tag.ErrDomain)
	}
	e := programs.CreateElement("Program")
	e.CreateAttr("Name", name)
	e.CreateElement("Tags")
	debugLog("added program %q", name)
	return tag.NewScope(e, nil)
}

func (p *Project) findProgram(name string) *etree.Element {
	programs := p.controller.SelectElement("Programs")
	if programs == nil {
		return nil
	}
	for _, e := range programs.SelectElements("Program") {
		if e.SelectAttrValue("Name", "") == name {
			return e
		}
	}
	return nil
}
