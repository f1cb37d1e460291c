package project

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"l5xkit/tag"
)

// TypeNames lists the user-defined data types in document order.
func (p *Project) TypeNames() []string {
	var names []string
	if types := p.controller.SelectElement("DataTypes"); types != nil {
		for _, e := range types.SelectElements("DataType") {
			names = append(names, e.SelectAttrValue("Name", ""))
		}
	}
	return names
}

// TypeMembers returns the member schema of a user-defined data type. It
// implements tag.Resolver for structure construction.
func (p *Project) TypeMembers(name string) ([]tag.Member, bool) {
	dt := p.findDataType(name)
	if dt == nil {
		return nil, false
	}
	section := dt.SelectElement("Members")
	if section == nil {
		return nil, false
	}
	var members []tag.Member
	for _, e := range section.SelectElements("Member") {
		dim, _ := strconv.Atoi(e.SelectAttrValue("Dimension", "0"))
		members = append(members, tag.Member{
			Name:      e.SelectAttrValue("Name", ""),
			DataType:  e.SelectAttrValue("DataType", ""),
			Radix:     e.SelectAttrValue("Radix", ""),
			Dimension: dim,
			Hidden:    e.SelectAttrValue("Hidden", "false") == "true",
		})
	}
	return members, true
}

// AddDataType registers a new user-defined type schema. Members are written
// in the given order, which is the order structure values are built in.
func (p *Project) AddDataType(name string, members []tag.Member) error {
	if name == "" || len(members) == 0 {
		return fmt.Errorf("data type needs a name and at least one member: %w", tag.ErrDomain)
	}
	if p.findDataType(name) != nil {
		return fmt.Errorf("data type %q already exists: %w", name, tag.ErrDomain)
	}
	types := p.controller.SelectElement("DataTypes")
	if types == nil {
		types = p.controller.CreateElement("DataTypes")
	}
	dt := types.CreateElement("DataType")
	dt.CreateAttr("Name", name)
	dt.CreateAttr("Family", "NoFamily")
	dt.CreateAttr("Class", "User")
	section := dt.CreateElement("Members")
	for _, m := range members {
		e := section.CreateElement("Member")
		e.CreateAttr("Name", m.Name)
		e.CreateAttr("DataType", m.DataType)
		e.CreateAttr("Dimension", strconv.Itoa(m.Dimension))
		if m.Radix != "" {
			e.CreateAttr("Radix", m.Radix)
		}
		e.CreateAttr("Hidden", strconv.FormatBool(m.Hidden))
	}
	debugLog("added data type %q with %d members", name, len(members))
	return nil
}

func (p *Project) findDataType(name string) *etree.Element {
	types := p.controller.SelectElement("DataTypes")
	if types == nil {
		return nil
	}
	for _, e := range types.SelectElements("DataType") {
		if e.SelectAttrValue("Name", "") == name {
			return e
		}
	}
	return nil
}
