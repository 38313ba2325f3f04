package field

// FromRecord builds the field metadata for a persisted row, parsing the option
// column that belongs to its type.
//
// A parse failure is returned alongside a usable Meta whose Options is nil, so
// the caller can report the field and keep processing the rest of the table.
func FromRecord(rec Record) (*Meta, error) {
	return fromRecord(rec, parseRecordOptions)
}

func fromRecord(rec Record, parse func(Record) (Options, error)) (*Meta, error) {
	meta := &Meta{
		ID:         rec.ID,
		TableID:    rec.TableID,
		Name:       rec.Name,
		Type:       rec.Type,
		IsComputed: rec.IsComputed,
		IsLookup:   rec.Type == TypeLookup,
	}
	opts, err := parse(rec)
	if err != nil {
		return meta, err
	}
	meta.Options = opts
	return meta, nil
}

// parseRecordOptions returns a nil Options for types that carry no
// dependency-relevant configuration.
func parseRecordOptions(rec Record) (Options, error) {
	switch rec.Type {
	case TypeLink:
		opts, err := ParseLinkOptions(rec.Options)
		if opts == nil {
			return nil, err
		}
		return opts, err
	case TypeLookup, TypeRollup:
		opts, err := ParseLookupOptions(rec.LookupOptions)
		if opts == nil {
			return nil, err
		}
		return opts, err
	case TypeConditionalRollup, TypeConditionalLookup:
		opts, err := ParseConditionalFieldOptions(rec.Options)
		if opts == nil {
			return nil, err
		}
		return opts, err
	default:
		return nil, nil
	}
}
