package domain

// CategoryKeywords binds a task category to the keywords that signal it.
type CategoryKeywords struct {
	Name     string
	Keywords []string
}

// Categories is the fixed, ordered category table used for category
// inference and skill-gap detection. Order matters: when two categories
// score equal keyword hits, the one listed first wins.
var Categories = []CategoryKeywords{
	{Name: "translation", Keywords: []string{"translate", "translation", "language", "spanish", "english", "localize", "subtitle"}},
	{Name: "writing", Keywords: []string{"write", "writing", "article", "blog", "copy", "content", "essay", "summary"}},
	{Name: "development", Keywords: []string{"code", "bug", "api", "software", "develop", "script", "website", "deploy"}},
	{Name: "design", Keywords: []string{"design", "logo", "graphic", "banner", "ui", "mockup", "illustration"}},
	{Name: "research", Keywords: []string{"research", "analyze", "investigate", "report", "survey", "compare", "sources"}},
	{Name: "data", Keywords: []string{"data", "spreadsheet", "entry", "scrape", "csv", "dataset", "cleanup"}},
	{Name: "social", Keywords: []string{"social", "twitter", "instagram", "post", "engagement", "hashtag", "followers"}},
	{Name: "review", Keywords: []string{"review", "feedback", "test", "qa", "evaluate", "verify", "moderate"}},
}

// CategoryNames returns the category names in table order.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}
