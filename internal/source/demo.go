package source

import (
	"context"

	"plex-newsletter/internal/document"
)

// Demo serves a fixed catalogue, handy for trying the editor without a
// media server.
type Demo struct{}

func (Demo) Name() string { return "demo" }

func (Demo) Recent(ctx context.Context, kind document.Kind, count int) ([]document.MediaEntryInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []document.MediaEntryInput
	for _, it := range demoCatalogue[kind] {
		it.Extra = map[string]any{"type": demoTypes[kind], "source": "demo"}
		items = append(items, it)
	}
	return limit(items, count), nil
}

var demoTypes = map[document.Kind]string{
	document.KindMovies:  "movie",
	document.KindTVShows: "tvshow",
	document.KindMusic:   "album",
}

var demoCatalogue = map[document.Kind][]document.MediaEntryInput{
	document.KindMovies: {
		{
			Title:       "Inception",
			Year:        "2010",
			Image:       "https://image.tmdb.org/t/p/w500/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg",
			Description: "Dom Cobb est un voleur expérimenté dans l'art périlleux de l'extraction : sa spécialité consiste à s'approprier les secrets les plus précieux d'un individu, enfouis au plus profond de son subconscient.",
		},
		{
			Title:       "Interstellar",
			Year:        "2014",
			Image:       "https://image.tmdb.org/t/p/w500/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
			Description: "Dans un futur proche, la Terre est devenue hostile pour l'homme. Les derniers habitants partent à la recherche d'une nouvelle planète habitable.",
		},
	},
	document.KindTVShows: {
		{
			Title:       "Breaking Bad",
			Year:        "2008",
			Image:       "https://image.tmdb.org/t/p/w500/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
			Description: "Un professeur de chimie atteint d'un cancer s'associe à un ancien élève pour fabriquer et vendre de la méthamphétamine.",
		},
		{
			Title:       "Stranger Things",
			Year:        "2016",
			Image:       "https://image.tmdb.org/t/p/w500/49WJfeN0moxb9IPfGn8AIqMGskD.jpg",
			Description: "Quand un jeune garçon disparaît, une petite ville découvre une affaire mystérieuse, des expériences secrètes et des forces surnaturelles.",
		},
	},
	document.KindMusic: {
		{
			Title:       "Dark Side of the Moon",
			Year:        "1973",
			Image:       "https://upload.wikimedia.org/wikipedia/en/3/3b/Dark_Side_of_the_Moon.png",
			Description: "Album emblématique de Pink Floyd",
		},
		{
			Title:       "Thriller",
			Year:        "1982",
			Image:       "https://upload.wikimedia.org/wikipedia/en/5/55/Michael_Jackson_-_Thriller.png",
			Description: "Album légendaire de Michael Jackson",
		},
	},
}
