package resources

import (
	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/schema"
)

func sysUser() Definition {
	return Definition{
		Kind:        "sys_user",
		Description: "Local administrative user account",
		Collection:  "auth/user",
		Scope:       ScopeGlobal,
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "password", Type: schema.TypeString, WriteOnly: true},
				{Name: "description", Type: schema.TypeString},
				{Name: "shell", Type: schema.TypeString, Choices: []string{"bash", "tmsh", "none"}},
				{Name: "partition_access", Type: schema.TypeList, Set: true},
			},
		},
	}
}

func authPartition() Definition {
	return Definition{
		Kind:        "auth_partition",
		Description: "Administrative partition",
		Collection:  "auth/partition",
		Scope:       ScopeGlobal,
		Ops:         OpsAll,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "description", Type: schema.TypeString},
				{Name: "route_domain", Type: schema.TypeInt, APIName: "defaultRouteDomain", Validate: "min=0,max=65534"},
			},
		},
	}
}

// sysDB entries always exist and cannot be created or removed; the API has no
// cheap existence probe for them.
func sysDB() Definition {
	return Definition{
		Kind:         "sys_db",
		Description:  "System database variable",
		Collection:   "sys/db",
		Scope:        ScopeGlobal,
		Ops:          OpUpdate,
		ExistsByRead: true,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "value", Type: schema.TypeString, Required: true},
			},
		},
	}
}

func sysNTP() Definition {
	return Definition{
		Kind:        "sys_ntp",
		Description: "NTP servers and timezone",
		Collection:  "sys/ntp",
		Scope:       ScopeSingleton,
		FixedName:   "ntp",
		Ops:         OpUpdate,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "servers", Type: schema.TypeStringList, Set: true},
				{Name: "timezone", Type: schema.TypeString},
			},
		},
	}
}

func sysDNS() Definition {
	return Definition{
		Kind:        "sys_dns",
		Description: "DNS resolver settings",
		Collection:  "sys/dns",
		Scope:       ScopeSingleton,
		FixedName:   "dns",
		Ops:         OpUpdate,
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "name_servers", Type: schema.TypeStringList, Validate: "dive,ip"},
				{Name: "search", Type: schema.TypeStringList},
				{Name: "ip_version", Type: schema.TypeInt, APIName: skipAPI, Choices: []string{"4", "6"}},
			},
		},
		Hooks: Hooks{
			ToAPI: func(body map[string]any, attrs map[string]any) {
				if v, ok := attrs["ip_version"].(int); ok && v == 6 {
					body["include"] = "options inet6"
				} else if ok {
					body["include"] = ""
				}
			},
			FromAPI: func(attrs map[string]any, obj map[string]any) {
				if inc, ok := obj["include"].(string); ok {
					if inc == "options inet6" {
						attrs["ip_version"] = 6
					} else {
						attrs["ip_version"] = 4
					}
				}
			},
		},
	}
}

func sysSyslogRemoteServer() Definition {
	return Definition{
		Kind:        "sys_syslog_remote_server",
		Description: "Remote server entry in the global syslog configuration",
		Scope:       ScopeSingleton,
		Ops:         OpsAll,
		Member: &MemberDef{
			ParentPath:      func(domain.Identity) string { return "sys/syslog" },
			ListAttr:        "remoteServers",
			KeyParam:        "name",
			KeyFromIdentity: true,
		},
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "host", Type: schema.TypeString, Required: true},
				{Name: "remote_port", Type: schema.TypeInt, Default: 514, APIName: "remotePort", Validate: "min=1,max=65535"},
				{Name: "local_ip", Type: schema.TypeString, APIName: "localIp", Validate: "ip"},
			},
		},
	}
}

func cmDeviceUnicastAddress() Definition {
	return Definition{
		Kind:        "cm_device_unicast_address",
		Description: "Failover unicast address of a device; name is the device",
		Scope:       ScopeGlobal,
		Ops:         OpsAll,
		Member: &MemberDef{
			ParentPath: func(id domain.Identity) string { return "cm/device/" + tildePath(id) },
			ListAttr:   "unicastAddress",
			KeyParam:   "ip",
		},
		Schema: &schema.Schema{
			Fields: []schema.Field{
				{Name: "ip", Type: schema.TypeString, Validate: "ip"},
				{Name: "port", Type: schema.TypeInt, Default: 1026, Validate: "min=1,max=65535"},
			},
		},
	}
}
