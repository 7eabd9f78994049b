package tributary

import (
	log "github.com/sirupsen/logrus"

	"github.com/tributary-io/tributary/internal/pkg/engine"
)

// processCatalog derives the items and producers relations from raw
// catalog records. It depends only on the parsed input; nothing written
// by the event stage is ever read here.
func (p *Pipeline) processCatalog() error {
	glob := joinLocation(p.config.CatalogLocation, "catalog_data", "*", "*", "*", "*.json")
	log.Infof("Reading catalog records from %s", glob)

	raw, err := p.engine.ReadJSON(glob)
	if err != nil {
		return err
	}

	items := raw.
		Filter(engine.NotNull(catalogItemID)).
		Select(itemsSchema, func(r engine.Row) engine.Row {
			return engine.Row{
				"item_id":     r[catalogItemID],
				"title":       r[catalogTitle],
				"producer_id": r[catalogProducerID],
				"year":        r[catalogYear],
				"duration":    r[catalogDuration],
			}
		}).
		Distinct()
	if err := p.writeRelation(items, "items", "year", "producer_id"); err != nil {
		return err
	}

	producers := raw.
		Filter(engine.NotNull(catalogProducerID)).
		Select(producersSchema, func(r engine.Row) engine.Row {
			return engine.Row{
				"producer_id": r[catalogProducerID],
				"name":        r[catalogProducer],
				"location":    r[catalogLocation],
				"latitude":    r[catalogLatitude],
				"longitude":   r[catalogLongitude],
			}
		}).
		Distinct()
	return p.writeRelation(producers, "producers")
}
