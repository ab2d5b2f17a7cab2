package resources

import (
	"github.com/olusolaa/appliance-converge/internal/schema"
)

func netVLAN() Definition {
	return Definition{
		Kind:        "net_vlan",
		Description: "Layer 2 VLAN",
		Collection:  "net/vlan",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "description", Type: schema.TypeString},
				{Name: "tag", Type: schema.TypeInt, Validate: "min=1,max=4094"},
				{Name: "mtu", Type: schema.TypeInt, Validate: "min=576,max=9198"},
				{Name: "tagged_interfaces", Type: schema.TypeStringList, Set: true, APIName: skipAPI},
				{Name: "untagged_interfaces", Type: schema.TypeStringList, Set: true, APIName: skipAPI},
			},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				tagged, hasTagged := attrs["tagged_interfaces"]
				untagged, hasUntagged := attrs["untagged_interfaces"]
				if !hasTagged && !hasUntagged {
					return
				}
				var ifaces []map[string]any
				for _, n := range names(tagged) {
					ifaces = append(ifaces, map[string]any{"name": n, "tagged": true})
				}
				for _, n := range names(untagged) {
					ifaces = append(ifaces, map[string]any{"name": n, "untagged": true})
				}
				body["interfaces"] = ifaces
			},
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				list, ok := obj["interfaces"].([]any)
				if !ok {
					return
				}
				tagged, untagged := []string{}, []string{}
				for _, e := range list {
					iface, ok := e.(map[string]any)
					if !ok {
						continue
					}
					name, _ := iface["name"].(string)
					if t, _ := iface["tagged"].(bool); t {
						tagged = append(tagged, name)
					} else {
						untagged = append(untagged, name)
					}
				}
				attrs["tagged_interfaces"] = tagged
				attrs["untagged_interfaces"] = untagged
			},
		},
	}
}

func netSelfIP() Definition {
	return Definition{
		Kind:        "net_selfip",
		Description: "Self IP address bound to a VLAN",
		Collection:  "net/self",
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "address", Type: schema.TypeString, Validate: "cidr"},
				{Name: "vlan", Type: schema.TypeString, Reference: true},
				{Name: "traffic_group", Type: schema.TypeString, Reference: true},
				{Name: "allow_service", Type: schema.TypeStringList, Set: true},
				{Name: "description", Type: schema.TypeString},
			},
			RequiredTogether: [][]string{{"address", "vlan"}},
		},
	}
}
