package service

import (
	"context"
	"log"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

type seedEntry struct {
	content  string
	category domain.Category
}

var baseKnowledge = []seedEntry{
	{"Per pulire il forno naturalmente, usa bicarbonato di sodio e aceto. Crea una pasta con bicarbonato e acqua, applicala nel forno, lascia agire, poi spruzza aceto e pulisci.", domain.CategoryPulizia},
	{"Multiuso naturale: mescola parti uguali di aceto bianco e acqua, aggiungi alcune gocce di olio essenziale di limone. Ottimo per superfici e vetri.", domain.CategoryPulizia},
	{"Per rimuovere il calcare dai rubinetti, immergi un panno nell'aceto bianco e avvolgilo intorno al rubinetto. Lascia agire 30 minuti, poi strofina e risciacqua.", domain.CategoryPulizia},
	{"Controlla le bollette di luce e gas ogni mese per verificare consumi anomali. Conserva sempre le fatture per almeno 5 anni.", domain.CategoryUtenze},
	{"Per risparmiare energia, usa lampadine LED, spegni sempre le luci quando esci, e regola il termostato a 19-20°C in inverno.", domain.CategoryUtenze},
	{"Il contratto di fornitura elettrica può essere cambiato gratuitamente. Confronta le offerte almeno una volta all'anno.", domain.CategoryUtenze},
	{"Per sbloccare scarichi intasati, versa bicarbonato seguito da aceto caldo. Copri lo scarico per 15 minuti, poi sciacqua con acqua bollente.", domain.CategoryManutenzione},
	{"Pulisci i filtri del condizionatore ogni 2-3 mesi per mantenere l'efficienza e la qualità dell'aria.", domain.CategoryManutenzione},
	{"Per eliminare odori dal frigorifero, posiziona una ciotola di bicarbonato aperta all'interno e cambiala ogni 3 mesi.", domain.CategoryCasa},
	{"Le piante d'appartamento come pothos e sansevieria purificano l'aria naturalmente e sono facili da curare.", domain.CategoryCasa},
}

// SeedBaseKnowledge loads the built-in knowledge set when the store is
// empty. Safe to call on every startup: a non-empty store is left alone,
// and the content-derived IDs make a concurrent double-seed idempotent.
func SeedBaseKnowledge(ctx context.Context, ingestor *Ingestor, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	count, err := ingestor.store.Count(ctx, "")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	added := 0
	for _, entry := range baseKnowledge {
		if _, err := ingestor.Ingest(ctx, entry.content, string(entry.category)); err != nil {
			return err
		}
		added++
	}

	logger.Printf(`{"level":"info","msg":"base knowledge seeded","items":%d}`, added)
	return nil
}
