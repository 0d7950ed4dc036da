package visits

import (
	"regexp"
	"strings"
)

// Bot categories, in detection priority order. More specific categories
// come first; the generic signatures run last so "googlebot" classifies
// as a search engine rather than matching the bare \bbot\b fallback.
const (
	BotSearchEngine = "Search Engine"
	BotSocialMedia  = "Social Media"
	BotMonitoring   = "Monitoring"
	BotSEO          = "SEO/Analytics"
	BotSecurity     = "Security"
	BotAI           = "AI/LLM"
	BotOther        = "Other Bot"
)

var botSignatures = []struct {
	category string
	patterns []string
}{
	{BotSearchEngine, []string{
		`googlebot`, `google-inspectiontool`, `storebot-google`,
		`bingbot`, `bingpreview`, `msnbot`,
		`duckduckbot`, `baiduspider`, `yandexbot`, `yandexmobilebot`,
		`yahoo! slurp`, `slurp`, `exabot`, `sogou`, `qwantify`,
		`applebot`, `seznambot`, `mojeekbot`,
	}},
	{BotSocialMedia, []string{
		`facebookexternalhit`, `facebookcatalog`, `facebot`,
		`twitterbot`, `whatsapp`, `linkedinbot`, `slackbot`,
		`telegrambot`, `discordbot`, `pinterestbot`, `redditbot`,
		`skypeuripreview`, `vkshare`, `embedly`, `flipboard`,
	}},
	{BotMonitoring, []string{
		`uptimerobot`, `pingdom`, `statuscake`, `site24x7`,
		`updown\.io`, `freshping`, `nodeping`, `hetrixtools`,
		`uptime-kuma`, `newrelic`, `datadog`, `checkly`, `ohdear`,
	}},
	{BotSEO, []string{
		`ahrefsbot`, `semrushbot`, `mj12bot`, `majestic12`, `dotbot`,
		`screaming frog`, `seobilitybot`, `serpstatbot`, `spbot`,
		`rogerbot`, `moz\.com`, `deepcrawl`, `oncrawlbot`, `botify`,
		`siteimprove`,
	}},
	{BotSecurity, []string{
		`shodan`, `censys`, `nmap scripting engine`, `masscan`,
		`zgrab`, `nuclei`, `acunetix`, `netsparker`, `qualys`,
		`openvas`, `nikto`, `nessus`, `burpcollaborator`,
	}},
	{BotAI, []string{
		`gptbot`, `chatgpt`, `claude-web`, `claudebot`, `anthropic-ai`,
		`cohere-ai`, `perplexitybot`, `youbot`, `diffbot`, `ccbot`,
		`common crawl`, `bytespider`, `petalsearch`,
	}},
	{BotOther, []string{
		`archive\.org_bot`, `ia_archiver`, `wayback`,
		`wget`, `curl`, `httpie`, `python-requests`, `python-urllib`,
		`go-http-client`, `okhttp`, `axios`, `java/`,
		`feedfetcher`, `feedly`, `newsblur`, `inoreader`,
		`w3c_validator`, `linkchecker`,
		`headlesschrome`, `chrome-lighthouse`, `phantomjs`,
		`selenium`, `puppeteer`, `playwright`,
		`\bbot\b`, `\bcrawl`, `\bspider\b`, `\bscraper\b`,
		`http client`, `fetcher`, `monitoring`, `indexer`,
		`aggregator`, `preview`,
	}},
}

type botCategory struct {
	name     string
	patterns []*regexp.Regexp
}

var botCategories = compileBotSignatures()

func compileBotSignatures() []botCategory {
	cats := make([]botCategory, 0, len(botSignatures))
	for _, sig := range botSignatures {
		cat := botCategory{name: sig.category, patterns: make([]*regexp.Regexp, 0, len(sig.patterns))}
		for _, p := range sig.patterns {
			cat.patterns = append(cat.patterns, regexp.MustCompile(p))
		}
		cats = append(cats, cat)
	}
	return cats
}

// DetectBot classifies a User-Agent string. It returns the matched
// category and the signature that matched, or ("", "") for a presumed
// human browser. Matching is case-insensitive and first-match-wins in
// category priority order.
func DetectBot(userAgent string) (category, matched string) {
	if userAgent == "" {
		return "", ""
	}
	ua := strings.ToLower(userAgent)

	for _, cat := range botCategories {
		for _, p := range cat.patterns {
			if m := p.FindString(ua); m != "" {
				return cat.name, m
			}
		}
	}
	return "", ""
}

// IsBot reports whether the User-Agent belongs to a known crawler.
func IsBot(userAgent string) bool {
	cat, _ := DetectBot(userAgent)
	return cat != ""
}
