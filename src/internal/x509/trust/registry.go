// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import "sort"

// Registry maps hostnames to trust policies. It is immutable after
// construction, so concurrent lookups from separate connections need no
// locking; owners that need different policies build a new Registry and swap
// it in.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry builds a registry from the given mapping. The keys are kept
// exactly as provided, without case folding or any other normalization, and
// entries with a nil policy are dropped. The input map is copied, so later
// mutation of it does not affect the registry.
func NewRegistry(policies map[string]Policy) *Registry {
	copied := make(map[string]Policy, len(policies))
	for host, policy := range policies {
		if policy == nil {
			continue
		}
		copied[host] = policy
	}
	return &Registry{policies: copied}
}

// PolicyFor returns the policy registered for host.
//
// The lookup is an exact string match: "Example.com" does not find an entry
// registered as "example.com", and wildcards are not expanded. Absence means
// no pinned policy exists for the host, and the caller decides how to proceed,
// typically by falling back to a default evaluation policy.
func (r *Registry) PolicyFor(host string) (Policy, bool) {
	if r == nil {
		return nil, false
	}
	policy, ok := r.policies[host]
	return policy, ok
}

// Hosts returns the registered hostnames in sorted order.
func (r *Registry) Hosts() []string {
	if r == nil {
		return nil
	}
	hosts := make([]string, 0, len(r.policies))
	for host := range r.policies {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Len returns the number of registered hosts.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.policies)
}
