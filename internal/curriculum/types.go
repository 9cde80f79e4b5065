package curriculum

// Resource is a catalog entry: a learning resource and the keywords that
// trigger its recommendation.
type Resource struct {
	Title    string   `yaml:"title" json:"title"`
	URL      string   `yaml:"url" json:"url"`
	Type     string   `yaml:"type" json:"type"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// catalogFile is the on-disk layout of a resource catalog YAML file.
type catalogFile struct {
	Resources []Resource `yaml:"resources"`
}
