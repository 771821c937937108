package security

import "regexp"

// secretRule is one entry in the hardcoded-secret pattern bank. Rules are
// matched in order against the raw file content.
type secretRule struct {
	re      *regexp.Regexp
	message string
}

var secretRules = []secretRule{
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[=:]\s*["'][a-zA-Z0-9_\-]{20,}["']`),
		"Hardcoded API key detected"},
	{regexp.MustCompile(`(?i)(token|access[_-]?token)\s*[=:]\s*["'][a-zA-Z0-9_\-]{20,}["']`),
		"Hardcoded token detected"},
	{regexp.MustCompile(`(?i)(secret|password|pwd)\s*[=:]\s*["'][^"']{8,}["']`),
		"Hardcoded secret/password detected"},
	{regexp.MustCompile(`(?i)(database[_-]?url|db[_-]?url)\s*[=:]\s*["'][^"']+["']`),
		"Database URL in code"},
	{regexp.MustCompile(`(?i)(db[_-]?password|database[_-]?password)\s*[=:]\s*["'][^"']+["']`),
		"Database password in code"},
	{regexp.MustCompile(`AWS[_-]?ACCESS[_-]?KEY[_-]?ID\s*[=:]\s*["'][A-Z0-9]{20}["']`),
		"AWS access key ID in code"},
	{regexp.MustCompile(`AWS[_-]?SECRET[_-]?ACCESS[_-]?KEY\s*[=:]\s*["'][a-zA-Z0-9/+]{40}["']`),
		"AWS secret access key in code"},
	{regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`),
		"Private key in code"},
	{regexp.MustCompile(`-----BEGIN\s+OPENSSH\s+PRIVATE\s+KEY-----`),
		"SSH private key in code"},
}

// sqlQueryRe recognizes query-shaped text; combined with a '+' concatenation
// next to the literal it signals string-built SQL.
var sqlQueryRe = regexp.MustCompile(`(?i)\b(SELECT\s.+\sFROM|INSERT\s+INTO|UPDATE\s.+\sSET|DELETE\s+FROM)\b`)

// String-literal heuristics applied to the text of each literal.
var sqlRiskRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)SELECT.*FROM.*WHERE.*\+`),
	regexp.MustCompile(`(?i)INSERT.*INTO.*VALUES.*\+`),
	regexp.MustCompile(`(?i)UPDATE.*SET.*WHERE.*\+`),
	regexp.MustCompile(`(?i)DELETE.*FROM.*WHERE.*\+`),
	regexp.MustCompile(`(?i)EXEC\s*\(`),
	regexp.MustCompile(`(?i)EXECUTE\s*\(`),
}

var cmdRiskRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)subprocess\.call\s*\(`),
	regexp.MustCompile(`(?i)subprocess\.run\s*\(`),
	regexp.MustCompile(`(?i)os\.system\s*\(`),
	regexp.MustCompile(`(?i)os\.popen\s*\(`),
	regexp.MustCompile(`(?i)commands\.getstatusoutput\s*\(`),
	regexp.MustCompile(`(?i)shell\s*=\s*True`),
}

var pathTraversalSeqs = []string{`../`, `..\`, `/../`, `\..\`}

func isSQLRisk(s string) bool {
	for _, re := range sqlRiskRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func isCmdRisk(s string) bool {
	for _, re := range cmdRiskRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
