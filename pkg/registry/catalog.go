package registry

// BuiltinCatalog returns the descriptors for the tools shipped by default.
// Declaration order here is the order /tools reports them in.
func BuiltinCatalog() []Descriptor {
	return []Descriptor{
		{
			Name:        "fuzz",
			Binary:      "fuzz",
			Description: "Generic fuzzing helper. Ensure the binary is available locally.",
			Args:        DefaultArgs(),
		},
		{
			Name:           "nmap",
			Binary:         "nmap",
			Description:    "Port scanner and service detector.",
			RequiresTarget: true,
			DefaultArgs:    []string{"-T4"},
			TargetHint:     "host or CIDR, e.g. 192.168.1.0/24",
			Args:           DefaultArgs(),
		},
		{
			Name:           "dirsearch",
			Binary:         "dirsearch",
			Description:    "Directory brute forcer for web paths.",
			RequiresTarget: true,
			TargetHint:     "base URL, e.g. https://example.com",
			Args:           FlagArgs("-u"),
		},
		{
			Name:           "theHarvester",
			Binary:         "theHarvester",
			Description:    "Open source intelligence gathering tool.",
			RequiresTarget: true,
			TargetHint:     "domain, e.g. example.com",
			Args:           FlagArgs("-d"),
		},
		{
			Name:           "subfinder",
			Binary:         "subfinder",
			Description:    "Passive subdomain enumeration.",
			RequiresTarget: true,
			DefaultArgs:    []string{"-silent"},
			TargetHint:     "domain, e.g. example.com",
			Args:           FlagArgs("-d"),
		},
		{
			Name:           "httpx",
			Binary:         "httpx",
			Description:    "HTTP probing tool for discovering live hosts.",
			RequiresTarget: true,
			DefaultArgs:    []string{"-silent"},
			TargetHint:     "URL or host, e.g. https://example.com",
			Args:           FlagArgs("-u"),
		},
		{
			Name:           "dalfox",
			Binary:         "dalfox",
			Description:    "XSS scanning utility.",
			RequiresTarget: true,
			TargetHint:     "URL with parameters, e.g. https://example.com/?q=1",
			Args:           SubcommandArgs("url"),
		},
		{
			Name:           "nuclei",
			Binary:         "nuclei",
			Description:    "Fast template-based vulnerability scanner.",
			RequiresTarget: true,
			TargetHint:     "URL or host, e.g. https://example.com",
			Args:           FlagArgs("-u"),
		},
		{
			Name:           "sublist3r",
			Binary:         "sublist3r",
			Description:    "Fast subdomains enumeration tool.",
			RequiresTarget: true,
			TargetHint:     "domain, e.g. example.com",
			Args:           FlagArgs("-d"),
		},
	}
}
