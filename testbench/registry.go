package testbench

import "sort"

// TestFunc is the main procedure of a registered test.
type TestFunc func(p *Process, dut DUT) error

// A Test is a named main procedure.
type Test struct {
	Name string
	Doc  string
	Func TestFunc
}

// A Registry keeps tests in the order they were registered.
type Registry struct {
	tests     []Test
	nameIndex map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nameIndex: make(map[string]int)}
}

// Register adds a test. It panics if the name is empty or taken.
func (r *Registry) Register(t Test) {
	if t.Name == "" {
		panic("test name cannot be empty")
	}

	if t.Func == nil {
		panic("test " + t.Name + " has no function")
	}

	if _, found := r.nameIndex[t.Name]; found {
		panic("test " + t.Name + " already registered")
	}

	r.tests = append(r.tests, t)
	r.nameIndex[t.Name] = len(r.tests) - 1
}

// Lookup returns the test with the given name.
func (r *Registry) Lookup(name string) (Test, bool) {
	i, found := r.nameIndex[name]
	if !found {
		return Test{}, false
	}

	return r.tests[i], true
}

// Tests returns all the tests in registration order.
func (r *Registry) Tests() []Test {
	return append([]Test(nil), r.tests...)
}

// Names returns the sorted test names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tests))
	for _, t := range r.tests {
		names = append(names, t.Name)
	}

	sort.Strings(names)

	return names
}
