package nuvei

// Field is one request element. Children is set only for nested blocks
// such as FOREIGNCURRENCYINFORMATION.
type Field struct {
	Name     string
	Value    string
	Children Fields
}

// Fields is an ordered field list; order is the XML node order
type Fields []Field

// Get returns the value of the first top-level field with the given name
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// Has reports whether a top-level field is present
func (f Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Child returns the nested block with the given name, if present
func (f Fields) Child(name string) (Fields, bool) {
	for _, field := range f {
		if field.Name == name && field.Children != nil {
			return field.Children, true
		}
	}
	return nil, false
}

// Names lists the top-level field names in order
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// clone deep-copies the list so callers cannot mutate a built request
func (f Fields) clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for i, field := range f {
		out[i] = Field{Name: field.Name, Value: field.Value, Children: field.Children.clone()}
	}
	return out
}

func (f *Fields) add(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}

// addIf appends the field only when value is non-empty
func (f *Fields) addIf(name, value string) {
	if value != "" {
		f.add(name, value)
	}
}

func (f *Fields) addBlock(name string, children Fields) {
	*f = append(*f, Field{Name: name, Children: children})
}
