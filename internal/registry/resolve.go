package registry

import "strings"

// DetectProvider heuristically maps an unregistered model name to a
// provider family so aliased or unversioned strings (e.g.
// "gpt-4-turbo-preview") still reach the right tokenizer.
//
// Three rules apply in precedence order: exact normalized equality,
// input-is-prefix-of-registered-name, registered-name-is-prefix-of-input.
// Within a rule, providers are scanned in the fixed registry order and
// model names in sorted order; the first provider with any match wins.
func (r *Registry) DetectProvider(name string) (string, bool) {
	n := Normalize(name)
	if n == "" {
		return "", false
	}

	type rule func(input, registered string) bool
	rules := []rule{
		func(input, registered string) bool { return input == registered },
		func(input, registered string) bool { return strings.HasPrefix(registered, input) },
		func(input, registered string) bool { return strings.HasPrefix(input, registered) },
	}

	for _, match := range rules {
		for _, provider := range r.providers {
			for _, m := range r.byProvider[provider] {
				if match(n, Normalize(m.Name)) {
					return provider, true
				}
			}
		}
	}
	return "", false
}
