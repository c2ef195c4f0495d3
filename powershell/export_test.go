package powershell

// Quote exposes the PowerShell literal quoting for tests.
var Quote = quote

// HelpScript and RelatedScript expose the generated lookup scripts for tests.
var (
	HelpScript    = helpScript
	RelatedScript = relatedScript
)
