package field

import "encoding/json"

// Type is the persisted field type name.
type Type string

const (
	TypeSingleLineText    Type = "singleLineText"
	TypeLongText          Type = "longText"
	TypeNumber            Type = "number"
	TypeCheckbox          Type = "checkbox"
	TypeCreatedTime       Type = "createdTime"
	TypeLastModifiedTime  Type = "lastModifiedTime"
	TypeAutoNumber        Type = "autoNumber"
	TypeFormula           Type = "formula"
	TypeLookup            Type = "lookup"
	TypeRollup            Type = "rollup"
	TypeLink              Type = "link"
	TypeConditionalRollup Type = "conditionalRollup"
	TypeConditionalLookup Type = "conditionalLookup"
)

// IsComputedType reports whether values of this type are derived from other fields.
func (t Type) IsComputedType() bool {
	switch t {
	case TypeFormula, TypeLookup, TypeRollup, TypeLink, TypeConditionalRollup, TypeConditionalLookup:
		return true
	}
	return false
}

// IsConditional reports whether the type matches foreign records by filter.
func (t Type) IsConditional() bool {
	return t == TypeConditionalRollup || t == TypeConditionalLookup
}

// Relationship is the cardinality of a link field.
type Relationship string

const (
	RelationshipOneMany  Relationship = "oneMany"
	RelationshipManyOne  Relationship = "manyOne"
	RelationshipOneOne   Relationship = "oneOne"
	RelationshipManyMany Relationship = "manyMany"
)

// Options is the parsed configuration of a computed field.
// The concrete value is one of *LinkOptions, *LookupOptions or *ConditionalOptions;
// a nil Options means the field carries no usable configuration.
type Options interface {
	isOptions()
}

// LinkOptions is the configuration of a link field.
// LookupFieldID names the foreign field shown as the link title.
type LinkOptions struct {
	ForeignTableID   string       `json:"foreignTableId"`
	LookupFieldID    string       `json:"lookupFieldId"`
	SymmetricFieldID string       `json:"symmetricFieldId,omitempty"`
	FkHostTableName  string       `json:"fkHostTableName,omitempty"`
	Relationship     Relationship `json:"relationship,omitempty"`
}

// LookupOptions is shared by lookup and rollup fields.
// LinkFieldID is the local link field that supplies the foreign record set.
type LookupOptions struct {
	LinkFieldID    string          `json:"linkFieldId"`
	ForeignTableID string          `json:"foreignTableId"`
	LookupFieldID  string          `json:"lookupFieldId"`
	FilterFieldIDs []string        `json:"filterFieldIds,omitempty"`
	FilterDto      json.RawMessage `json:"filterDto,omitempty"`
}

// ConditionalOptions configures conditional lookup and rollup fields.
// Foreign records are matched by filter, there is no link to traverse.
type ConditionalOptions struct {
	ForeignTableID    string          `json:"foreignTableId"`
	LookupFieldID     string          `json:"lookupFieldId"`
	ConditionFieldIDs []string        `json:"conditionFieldIds"`
	FilterDto         json.RawMessage `json:"filterDto,omitempty"`
}

func (*LinkOptions) isOptions()        {}
func (*LookupOptions) isOptions()      {}
func (*ConditionalOptions) isOptions() {}

// Meta is the read-only view of a field definition used for dependency analysis.
type Meta struct {
	ID         string  `json:"id"`
	TableID    string  `json:"tableId"`
	Name       string  `json:"name,omitempty"`
	Type       Type    `json:"type"`
	IsComputed bool    `json:"isComputed"`
	IsLookup   bool    `json:"isLookup"`
	Options    Options `json:"options,omitempty"`
}

// LinkOptions returns the link configuration, or nil unless this is a configured link field.
func (m *Meta) LinkOptions() *LinkOptions {
	if m.Type != TypeLink {
		return nil
	}
	opts, _ := m.Options.(*LinkOptions)
	return opts
}

// LookupOptions returns the lookup configuration for lookup and rollup fields.
func (m *Meta) LookupOptions() *LookupOptions {
	if m.Type != TypeLookup && m.Type != TypeRollup {
		return nil
	}
	opts, _ := m.Options.(*LookupOptions)
	return opts
}

// ConditionalOptions returns the configuration of conditional lookup and rollup fields.
func (m *Meta) ConditionalOptions() *ConditionalOptions {
	if !m.Type.IsConditional() {
		return nil
	}
	opts, _ := m.Options.(*ConditionalOptions)
	return opts
}

// Record is one persisted field row as read from storage.
// Options and LookupOptions hold raw JSON; nil means SQL NULL.
type Record struct {
	ID            string
	TableID       string
	Name          string
	Type          Type
	IsComputed    bool
	IsLookup      bool
	Options       *string
	LookupOptions *string
	Order         float64
}
