package card

// TemplateID names a predefined template.
type TemplateID string

const (
	TemplateClassicPunk      TemplateID = "classic-punk"
	TemplateNeonUnderground  TemplateID = "neon-underground"
	TemplateVintagePoster    TemplateID = "vintage-poster"
	TemplatePolaroidMemories TemplateID = "polaroid-memories"
	TemplateCyberpunkGlitch  TemplateID = "cyberpunk-glitch"
	TemplateHorrorPunk       TemplateID = "horror-punk"
	TemplateMinimalist       TemplateID = "minimalist-modern"
	TemplateRiotGrrrl        TemplateID = "riot-grrrl"
)

// Template is a named bundle of customization values applied atomically.
// A template owns exactly the scheme, the font and the polaroid frame flag.
type Template struct {
	ID            TemplateID
	Name          string
	Description   string
	Scheme        ColorScheme
	Font          FontStyle
	PolaroidFrame bool
}

var templates = []Template{
	{TemplateClassicPunk, "Classic Punk", "Black & white with red accents", SchemeClassicPunk, FontTypewriter, false},
	{TemplateNeonUnderground, "Neon Underground", "Bright pink on dark background", SchemeNeonUnderground, FontZine, false},
	{TemplateVintagePoster, "Vintage Concert Poster", "Aged paper with bold typography", SchemeVintagePoster, FontZine, false},
	{TemplatePolaroidMemories, "Polaroid Memories", "Classic instant camera look", SchemePolaroidMemories, FontHandwritten, true},
	{TemplateCyberpunkGlitch, "Cyberpunk Glitch", "Digital chaos aesthetic", SchemeCyberpunkGlitch, FontMono, false},
	{TemplateHorrorPunk, "Horror Punk", "Dark and spooky vibes", SchemeHorrorPunk, FontCreepy, false},
	{TemplateMinimalist, "Minimalist Modern", "Clean and contemporary", SchemeMinimalist, FontTypewriter, false},
	{TemplateRiotGrrrl, "Riot Grrrl", "DIY feminist punk energy", SchemeRiotGrrrl, FontZine, false},
}

// Templates returns the predefined templates in display order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// LookupTemplate returns the template with the given id. Unknown ids resolve
// to the default template.
func LookupTemplate(id TemplateID) Template {
	id = TemplateID(normalize(string(id)))
	for _, t := range templates {
		if t.ID == id {
			return t
		}
	}
	for _, t := range templates {
		if t.ID == DefaultTemplateID {
			return t
		}
	}
	return templates[0]
}

// ApplyTemplate overwrites the template owned fields and leaves every other
// field untouched.
func (o Options) ApplyTemplate(id TemplateID) Options {
	t := LookupTemplate(id)
	o = o.clone()
	o.Template = t.ID
	o.Scheme = t.Scheme
	o.Font = t.Font
	o.PolaroidFrame = t.PolaroidFrame
	return o
}
