package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_get_iocs",
		Description: "List recent IOCs from ThreatFox. Set days (1-90) to widen the window. Returns {query_status, count, data}; data is a list of IOCs with id, ioc, threat_type, ioc_type, malware, confidence_level, first_seen, tags. Use jq (e.g. [.data[] | {ioc, malware}]) to trim large responses.",
	}, ToolGetIOCs(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_get_ioc",
		Description: "Get full details of one IOC by its ThreatFox ID, including reporter, reference and attached malware samples.",
	}, ToolGetIOC(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_search_ioc",
		Description: "Search ThreatFox for an IOC value (IP:port, domain or URL). query_status is no_result when the IOC is unknown. Use threatfox_search_hash for file hashes.",
	}, ToolSearchIOC(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_search_hash",
		Description: "Find IOCs associated with a malware sample by its MD5 or SHA256 hash.",
	}, ToolSearchHash(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_query_tag",
		Description: "List IOCs carrying a tag (e.g. Magecart, Emotet). limit defaults to 100 (max 1000) and is capped by the configured max_result_constraint.",
	}, ToolQueryTag(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_query_malware",
		Description: "List IOCs associated with a malware family (e.g. Cobalt Strike). limit defaults to 100 (max 1000) and is capped by the configured max_result_constraint. Use threatfox_search_malware_families first if unsure of the family name.",
	}, ToolQueryMalware(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_search_malware_families",
		Description: "Resolve a malware name, label or alias to Malpedia family names, optionally restricted to a platform (win, osx, apk, jar, elf).",
	}, ToolSearchMalwareFamilies(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_malware_list",
		Description: "List every malware family known to ThreatFox with its printable name and alias. Large: prefer jq (e.g. .data | keys | length).",
	}, ToolMalwareList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_threat_types",
		Description: "List the IOC types and threat types accepted by ThreatFox. Call before threatfox_submit_iocs to pick threat_type and ioc_type.",
	}, ToolThreatTypes(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_tag_list",
		Description: "List every tag known to ThreatFox with first and last seen dates. Large: prefer jq.",
	}, ToolTagList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "threatfox_submit_iocs",
		Description: "Submit IOCs to ThreatFox (requires an API key). Returns data {ok, duplicated, ignored, reward} listing the outcome for each IOC. Submissions are public unless anonymous is set.",
	}, ToolSubmitIOCs(d))
}
