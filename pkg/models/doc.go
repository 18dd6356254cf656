/*
Package models defines the core data structures shared across proxysweep.
It provides the types that represent tokenized endpoints, validation
findings, run configuration, and streamed check results.

Core Types:

EndpointMatch is one proxy endpoint recovered from raw pasted text:

	type EndpointMatch struct {
		IP           string     // IPv4 literal
		Port         string     // digits, empty for bare-IP matches
		User         string     // optional credential
		Pass         string     // optional credential
		OriginalText string     // the exact span matched
		Offset       int        // byte offset into the source text
		Length       int        // span length for highlighting
		Confidence   Confidence // confirmed (has port) or ambiguous
		Format       Format     // which of the known layouts matched
	}

ProxyResult is one decoded outcome from the check stream. The server
assigns the id; geo fields are merged in later when a geo event
references the same id:

	type ProxyResult struct {
		ID             string
		ProxyIP        string
		ProxyPort      string
		User           string
		Status         string // "OK" | "FAIL"
		ExitIP         string
		ResponseTimeMs *int   // nil when the check never connected
		Error          string
		Country        string
		CountryCode    string
		City           string
	}

Report maps logical input fields (proxyText, checkUrl, timeout,
maxWorkers, fieldOrder, sessionName) to severity-tagged issues. A run
may start only while Report.HasErrors() is false; warnings and tips
never block.

RunState models the idle -> running -> done lifecycle of one run.
"done" is terminal until a new run resets to a fresh transition.
*/
package models
