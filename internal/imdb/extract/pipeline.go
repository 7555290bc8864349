package extract

// Tier is one extraction strategy. accepted=false means the caller should
// try the next tier.
type Tier interface {
	Name() string
	Extract(doc *Document, season int) (episodes []Episode, accepted bool)
}

// Result is the pipeline output together with the tier that produced it.
type Result struct {
	Episodes []Episode
	Tier     string
}

// Pipeline runs tiers in order and stops at the first accepted one.
type Pipeline struct {
	tiers []Tier
}

// NewPipeline builds a pipeline. With no tiers it uses the default order:
// embedded JSON, card selectors, then the label heuristic.
func NewPipeline(tiers ...Tier) *Pipeline {
	if len(tiers) == 0 {
		tiers = []Tier{NextDataTier{}, DOMTier{}, HeuristicTier{}}
	}
	return &Pipeline{tiers: tiers}
}

// Run parses raw and extracts the given season. An unparsable page or a page
// no tier accepts yields an empty Result.
func (p *Pipeline) Run(raw []byte, season int) Result {
	doc, err := NewDocument(raw)
	if err != nil {
		return Result{}
	}
	return p.RunDocument(doc, season)
}

// RunDocument is Run for an already parsed page.
func (p *Pipeline) RunDocument(doc *Document, season int) Result {
	for _, tier := range p.tiers {
		if episodes, ok := tier.Extract(doc, season); ok {
			return Result{Episodes: episodes, Tier: tier.Name()}
		}
	}
	return Result{}
}
