package resources

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/schema"
)

var lbMethods = []string{
	"round-robin", "ratio-member", "least-connections-member", "observed-member",
	"predictive-member", "ratio-node", "least-connections-node", "fastest-node",
	"least-sessions", "dynamic-ratio-member",
}

func ltmPool() Definition {
	return Definition{
		Kind:        "ltm_pool",
		Description: "Local traffic pool",
		Collection:  "ltm/pool",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "description", Type: schema.TypeString},
				{Name: "lb_method", Type: schema.TypeString, APIName: "loadBalancingMode", Choices: lbMethods},
				{Name: "monitor", Type: schema.TypeString, Reference: true},
				{Name: "slow_ramp_time", Type: schema.TypeInt, Validate: "min=0"},
				{Name: "service_down_action", Type: schema.TypeString, Choices: []string{"none", "reset", "drop", "reselect"}},
				{Name: "allow_snat", Type: schema.TypeBool},
				{Name: "allow_nat", Type: schema.TypeBool},
				{Name: "min_active_members", Type: schema.TypeInt, Validate: "min=0"},
			},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				yesNo(body, "allowSnat")
				yesNo(body, "allowNat")
			},
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				// The appliance pads monitor rules with a trailing space.
				if m, ok := attrs["monitor"].(string); ok {
					attrs["monitor"] = strings.TrimSpace(m)
				}
			},
		},
	}
}

func ltmNode() Definition {
	return Definition{
		Kind:        "ltm_node",
		Description: "Local traffic node",
		Collection:  "ltm/node",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "address", Type: schema.TypeString, Validate: "ip"},
				{Name: "fqdn", Type: schema.TypeString, APIName: skipAPI, Validate: "fqdn"},
				{Name: "description", Type: schema.TypeString},
				{Name: "connection_limit", Type: schema.TypeInt, Validate: "min=0"},
				{Name: "rate_limit", Type: schema.TypeInt, Validate: "min=0"},
				{Name: "ratio", Type: schema.TypeInt, Validate: "min=1"},
				{Name: "monitor", Type: schema.TypeString, Reference: true},
			},
			MutuallyExclusive: [][]string{{"address", "fqdn"}},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				if fqdn, ok := attrs["fqdn"].(string); ok && fqdn != "" {
					body["fqdn"] = map[string]any{"tmName": fqdn}
				}
			},
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				if f, ok := obj["fqdn"].(map[string]any); ok {
					if name, ok := f["tmName"].(string); ok && name != "" {
						attrs["fqdn"] = name
					}
				}
				if m, ok := attrs["monitor"].(string); ok {
					attrs["monitor"] = strings.TrimSpace(m)
				}
			},
		},
	}
}

func ltmVirtual() Definition {
	return Definition{
		Kind:        "ltm_virtual",
		Description: "Local traffic virtual server",
		Collection:  "ltm/virtual",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "description", Type: schema.TypeString},
				{Name: "destination", Type: schema.TypeString, Reference: true},
				{Name: "source", Type: schema.TypeString},
				{Name: "mask", Type: schema.TypeString, Validate: "ip"},
				{Name: "ip_protocol", Type: schema.TypeString, Choices: []string{"tcp", "udp", "sctp", "any"}},
				{Name: "pool", Type: schema.TypeString, Reference: true},
				{Name: "profiles", Type: schema.TypeStringList, Set: true, Reference: true, APIName: skipAPI},
				{Name: "irules", Type: schema.TypeStringList, Reference: true, APIName: "rules"},
				{Name: "policies", Type: schema.TypeStringList, Set: true, Reference: true, APIName: skipAPI},
				{Name: "vlans", Type: schema.TypeStringList, Set: true, Reference: true},
				{Name: "snat_type", Type: schema.TypeString, APIName: skipAPI, Choices: []string{"none", "automap", "snat"}},
				{Name: "snat_pool", Type: schema.TypeString, APIName: skipAPI, Reference: true},
				{Name: "enabled", Type: schema.TypeBool, APIName: skipAPI},
				{Name: "connection_limit", Type: schema.TypeInt, Validate: "min=0"},
			},
			RequiredIf: []schema.RequiredIf{
				{Field: "snat_type", Value: "snat", Requires: []string{"snat_pool"}},
			},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				if v, ok := attrs["profiles"]; ok {
					body["profiles"] = namedList(v)
				}
				if v, ok := attrs["policies"]; ok {
					body["policies"] = namedList(v)
				}
				if t, ok := attrs["snat_type"].(string); ok {
					sat := map[string]any{"type": t}
					if t == "snat" {
						sat["pool"] = attrs["snat_pool"]
					}
					body["sourceAddressTranslation"] = sat
				}
				if enabled, ok := attrs["enabled"].(bool); ok {
					if enabled {
						body["enabled"] = true
					} else {
						body["disabled"] = true
					}
				}
			},
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				if v, ok := obj["profiles"]; ok {
					attrs["profiles"] = names(v)
				}
				if v, ok := obj["policies"]; ok {
					attrs["policies"] = names(v)
				}
				if sat, ok := obj["sourceAddressTranslation"].(map[string]any); ok {
					attrs["snat_type"] = sat["type"]
					if pool, ok := sat["pool"]; ok {
						attrs["snat_pool"] = pool
					}
				}
				if d, ok := obj["disabled"].(bool); ok && d {
					attrs["enabled"] = false
				} else if _, ok := obj["enabled"]; ok {
					attrs["enabled"] = true
				}
			},
		},
	}
}

func ltmSnatPool() Definition {
	return Definition{
		Kind:        "ltm_snat_pool",
		Description: "SNAT translation address pool",
		Collection:  "ltm/snatpool",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "members", Type: schema.TypeStringList, Required: true, Set: true, Reference: true},
				{Name: "description", Type: schema.TypeString},
			},
		},
	}
}

func ltmMonitor(kind domain.ResourceKind, monitorType string) Definition {
	return Definition{
		Kind:        kind,
		Description: strings.ToUpper(monitorType) + " health monitor",
		Collection:  "ltm/monitor/" + monitorType,
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "parent", Type: schema.TypeString, APIName: "defaultsFrom", Reference: true, Default: "/Common/" + monitorType},
				{Name: "description", Type: schema.TypeString},
				{Name: "send", Type: schema.TypeString},
				{Name: "receive", Type: schema.TypeString, APIName: "recv"},
				{Name: "receive_disable", Type: schema.TypeString, APIName: "recvDisable"},
				{Name: "interval", Type: schema.TypeInt, Validate: "min=1"},
				{Name: "timeout", Type: schema.TypeInt, Validate: "min=1"},
				{Name: "time_until_up", Type: schema.TypeInt, Validate: "min=0"},
				{Name: "destination", Type: schema.TypeString},
			},
		},
	}
}

func ltmIRule() Definition {
	return Definition{
		Kind:        "ltm_irule",
		Description: "Traffic rule script",
		Collection:  "ltm/rule",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "content", Type: schema.TypeString, Required: true, APIName: "apiAnonymous"},
			},
		},
		Hooks: Hooks{
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				if c, ok := attrs["content"].(string); ok {
					attrs["content"] = strings.TrimSpace(c)
				}
			},
			ToAPI: func(body map[string]any, attrs map[string]any) {
				if c, ok := body["apiAnonymous"].(string); ok {
					body["apiAnonymous"] = strings.TrimSpace(c)
				}
			},
		},
	}
}

func ltmProfileClientSSL() Definition {
	return Definition{
		Kind:        "ltm_profile_client_ssl",
		Description: "Client-side SSL profile",
		Collection:  "ltm/profile/client-ssl",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "parent", Type: schema.TypeString, APIName: "defaultsFrom", Reference: true, Default: "/Common/clientssl"},
				{Name: "cert", Type: schema.TypeString, Reference: true},
				{Name: "key", Type: schema.TypeString, Reference: true},
				{Name: "chain", Type: schema.TypeString, Reference: true},
				{Name: "passphrase", Type: schema.TypeString, WriteOnly: true},
				{Name: "ciphers", Type: schema.TypeString},
				{Name: "options", Type: schema.TypeStringList, APIName: "tmOptions", Set: true},
				{Name: "sni_default", Type: schema.TypeBool},
			},
			RequiredTogether: [][]string{{"cert", "key"}},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				trueFalse(body, "sniDefault")
			},
		},
	}
}

func ltmPolicy() Definition {
	return Definition{
		Kind:        "ltm_policy",
		Description: "Local traffic policy with draft/published lifecycle",
		Collection:  "ltm/policy",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "description", Type: schema.TypeString},
				{Name: "strategy", Type: schema.TypeString, Reference: true, Choices: []string{"first-match", "best-match", "all-match"}},
				{Name: "requires", Type: schema.TypeStringList, Set: true},
				{Name: "controls", Type: schema.TypeStringList, Set: true},
				{Name: "status", Type: schema.TypeString, Control: true, Choices: []string{"draft", "published"}},
			},
		},
		Transition: &TransitionDef{
			Param: "status",
			Call: func(collection, objectPath string, id domain.Identity, target string) (Call, error) {
				switch target {
				case "published":
					return Call{
						Method: http.MethodPost,
						Path:   collection,
						Body:   map[string]any{"command": "publish", "name": id.FullPath()},
					}, nil
				case "draft":
					return Call{Method: http.MethodPatch, Path: objectPath + "?options=create-draft", Body: map[string]any{}}, nil
				default:
					return Call{}, errors.New(errors.CodeValidation, fmt.Sprintf("unknown policy status %q", target))
				}
			},
		},
	}
}

func ltmPolicyRule() Definition {
	return Definition{
		Kind:        "ltm_policy_rule",
		Description: "Rule inside a local traffic policy",
		Scope:       ScopeChild,
		Ops:         OpsAll,
		Parent: &ParentRef{
			Kind:          "ltm_policy",
			Param:         "policy",
			Collection:    "ltm/policy",
			SubCollection: "rules",
		},
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "policy", Type: schema.TypeString, Required: true, Control: true, Reference: true},
				{Name: "description", Type: schema.TypeString},
				{Name: "ordinal", Type: schema.TypeInt, Validate: "min=0"},
				{Name: "conditions", Type: schema.TypeList},
				{Name: "actions", Type: schema.TypeList},
			},
		},
	}
}

// namedList turns ["/Common/http"] into [{"name":"/Common/http"}].
func namedList(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			out = append(out, map[string]any{"name": s})
		}
	case []any:
		for _, s := range t {
			out = append(out, map[string]any{"name": fmt.Sprint(s)})
		}
	}
	return out
}

// names is the inverse of namedList, accepting either shape.
func names(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		switch t := e.(type) {
		case map[string]any:
			if n, ok := t["fullPath"].(string); ok {
				out = append(out, n)
			} else if n, ok := t["name"].(string); ok {
				out = append(out, n)
			}
		case string:
			out = append(out, t)
		}
	}
	return out
}

func yesNo(body map[string]any, key string) {
	if b, ok := body[key].(bool); ok {
		body[key] = map[bool]string{true: "yes", false: "no"}[b]
	}
}

func trueFalse(body map[string]any, key string) {
	if b, ok := body[key].(bool); ok {
		body[key] = map[bool]string{true: "true", false: "false"}[b]
	}
}
