package recipe

// ConfSkipTest asks recipes not to build or run their test suites.
const ConfSkipTest = "tools.build:skip_test"

// Conf holds configuration entries such as "tools.build:skip_test".
type Conf map[string]string

// Get returns the value for key, or def when key is not set.
func (c Conf) Get(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// GetBool returns the boolean value for key, or def when key is not set or
// does not hold a boolean.
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := c[key]
	if !ok {
		return def
	}
	b, ok := ParseBool(v)
	if !ok {
		return def
	}
	return b
}
