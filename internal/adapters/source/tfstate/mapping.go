package tfstate

import (
	"fmt"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/pkg/reflectutil"
)

// typeMapping turns one bigip_* resource type into a catalog kind.
type typeMapping struct {
	kind domain.ResourceKind
	// kindFor picks the kind from the attributes when one type maps to several.
	kindFor func(attrs map[string]any) (domain.ResourceKind, bool)
	// attrs maps Terraform attribute names onto parameter names.
	attrs map[string]string
	// convert handles attributes that need reshaping. It runs after attrs.
	convert func(attrs map[string]any, params map[string]any)
}

var typeMappings = map[string]typeMapping{
	"bigip_ltm_pool": {
		kind: "ltm_pool",
		attrs: map[string]string{
			"description":         "description",
			"load_balancing_mode": "lb_method",
			"slow_ramp_time":      "slow_ramp_time",
			"allow_snat":          "allow_snat",
			"allow_nat":           "allow_nat",
			"service_down_action": "service_down_action",
		},
		convert: func(attrs, params map[string]any) {
			if monitors := stringList(attrs["monitors"]); len(monitors) > 0 {
				params["monitor"] = strings.Join(monitors, " and ")
			}
		},
	},
	"bigip_ltm_node": {
		kind: "ltm_node",
		attrs: map[string]string{
			"address":          "address",
			"description":      "description",
			"connection_limit": "connection_limit",
			"ratio":            "ratio",
			"monitor":          "monitor",
		},
	},
	"bigip_ltm_virtual_server": {
		kind: "ltm_virtual",
		attrs: map[string]string{
			"description":      "description",
			"pool":             "pool",
			"ip_protocol":      "ip_protocol",
			"mask":             "mask",
			"source":           "source",
			"profiles":         "profiles",
			"irules":           "irules",
			"policies":         "policies",
			"vlans":            "vlans",
			"snatpool":         "snat_pool",
		},
		convert: func(attrs, params map[string]any) {
			if dest, ok := attrs["destination"].(string); ok && dest != "" {
				if port, ok := attrs["port"]; ok && port != nil {
					dest = fmt.Sprintf("%s:%v", dest, port)
				}
				params["destination"] = dest
			}
			if sat, ok := attrs["source_address_translation"].(string); ok && sat != "" {
				params["snat_type"] = sat
			}
			if state, ok := attrs["state"].(string); ok && state != "" {
				params["enabled"] = state == "enabled"
			}
		},
	},
	"bigip_ltm_snatpool": {
		kind:  "ltm_snat_pool",
		attrs: map[string]string{"members": "members"},
	},
	"bigip_ltm_monitor": {
		kindFor: func(attrs map[string]any) (domain.ResourceKind, bool) {
			parent, _ := attrs["parent"].(string)
			switch strings.TrimPrefix(parent, "/Common/") {
			case "http":
				return "ltm_monitor_http", true
			case "tcp":
				return "ltm_monitor_tcp", true
			}
			return "", false
		},
		attrs: map[string]string{
			"parent":          "parent",
			"description":     "description",
			"send":            "send",
			"receive":         "receive",
			"receive_disable": "receive_disable",
			"interval":        "interval",
			"timeout":         "timeout",
			"time_until_up":   "time_until_up",
			"destination":     "destination",
		},
	},
	"bigip_ltm_irule": {
		kind:  "ltm_irule",
		attrs: map[string]string{"irule": "content"},
	},
	"bigip_ltm_profile_client_ssl": {
		kind: "ltm_profile_client_ssl",
		attrs: map[string]string{
			"defaults_from": "parent",
			"cert":          "cert",
			"key":           "key",
			"chain":         "chain",
			"ciphers":       "ciphers",
		},
	},
	"bigip_ltm_policy": {
		kind: "ltm_policy",
		attrs: map[string]string{
			"strategy": "strategy",
			"requires": "requires",
			"controls": "controls",
		},
		convert: func(attrs, params map[string]any) {
			if p, ok := attrs["published_copy"].(string); ok && p != "" {
				params["status"] = "published"
			}
		},
	},
	"bigip_net_vlan": {
		kind:  "net_vlan",
		attrs: map[string]string{"tag": "tag", "mtu": "mtu", "description": "description"},
		convert: func(attrs, params map[string]any) {
			list, ok := attrs["interfaces"].([]any)
			if !ok {
				return
			}
			var tagged, untagged []string
			for _, e := range list {
				iface, ok := e.(map[string]any)
				if !ok {
					continue
				}
				name, _ := iface["vlanport"].(string)
				if t, _ := iface["tagged"].(bool); t {
					tagged = append(tagged, name)
				} else {
					untagged = append(untagged, name)
				}
			}
			if len(tagged) > 0 {
				params["tagged_interfaces"] = tagged
			}
			if len(untagged) > 0 {
				params["untagged_interfaces"] = untagged
			}
		},
	},
	"bigip_net_selfip": {
		kind:  "net_selfip",
		attrs: map[string]string{"ip": "address", "vlan": "vlan", "traffic_group": "traffic_group"},
	},
	"bigip_sys_dns": {
		kind:  "sys_dns",
		attrs: map[string]string{"name_servers": "name_servers", "search": "search", "ip_version": "ip_version"},
	},
	"bigip_sys_ntp": {
		kind:  "sys_ntp",
		attrs: map[string]string{"servers": "servers", "timezone": "timezone"},
	},
}

// SupportedTypes lists the Terraform types this source understands.
func SupportedTypes() []string {
	out := make([]string, 0, len(typeMappings))
	for t := range typeMappings {
		out = append(out, t)
	}
	return out
}

// mapResource converts one resource's attribute values into a declaration's
// kind and params. ok is false for types without a mapping.
func mapResource(tfType string, attrs map[string]any) (domain.ResourceKind, map[string]any, bool) {
	m, known := typeMappings[tfType]
	if !known {
		return "", nil, false
	}
	kind := m.kind
	if m.kindFor != nil {
		var ok bool
		if kind, ok = m.kindFor(attrs); !ok {
			return "", nil, false
		}
	}

	params := make(map[string]any, len(m.attrs)+2)
	if name, ok := attrs["name"].(string); ok && name != "" {
		id := splitFullPath(name)
		params[domain.KeyName] = id.Name
		params[domain.KeyPartition] = id.Partition
		if id.SubPath != "" {
			params[domain.KeySubPath] = id.SubPath
		}
	}
	for tfKey, param := range m.attrs {
		if param == "" {
			continue
		}
		v, ok := attrs[tfKey]
		if !ok || reflectutil.IsEmptyValue(v) {
			continue
		}
		params[param] = v
	}
	if m.convert != nil {
		m.convert(attrs, params)
	}
	return kind, params, true
}

// splitFullPath understands the provider's "/Partition/name" convention.
func splitFullPath(name string) domain.Identity {
	if !strings.HasPrefix(name, "/") {
		return domain.Identity{Name: name, Partition: domain.DefaultPartition}
	}
	parts := strings.Split(strings.Trim(name, "/"), "/")
	if len(parts) == 1 {
		return domain.Identity{Name: parts[0], Partition: domain.DefaultPartition}
	}
	id := domain.Identity{Partition: parts[0], Name: parts[len(parts)-1]}
	if len(parts) > 2 {
		id.SubPath = strings.Join(parts[1:len(parts)-1], "/")
	}
	return id
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
