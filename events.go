package tributary

import (
	log "github.com/sirupsen/logrus"

	"github.com/tributary-io/tributary/internal/pkg/engine"
)

// processEvents derives the actors, time and play_facts relations from
// raw event records. The fact relation joins against the catalog
// relations written by the catalog stage, re-read from their output
// location rather than handed over in memory.
func (p *Pipeline) processEvents() error {
	glob := joinLocation(p.config.EventLocation, "event_data", "*.json")
	log.Infof("Reading event records from %s", glob)

	raw, err := p.engine.ReadJSON(glob)
	if err != nil {
		return err
	}

	plays := raw.Filter(func(r engine.Row) bool {
		return r[eventPage] == playMarker
	})
	log.Debugf("%d of %d events are play events", plays.Len(), raw.Len())

	actors := plays.
		Filter(engine.NotNull(eventUserID)).
		Select(actorsSchema, func(r engine.Row) engine.Row {
			return engine.Row{
				"actor_id":   r[eventUserID],
				"first_name": r[eventFirstName],
				"last_name":  r[eventLastName],
				"gender":     r[eventGender],
				"level":      r[eventLevel],
			}
		}).
		Distinct()
	if err := p.writeRelation(actors, "actors"); err != nil {
		return err
	}

	stamped := plays.
		Filter(engine.NotNull(eventTimestamp)).
		Map(func(r engine.Row) engine.Row {
			start, hour, day, week, month, year, weekday := timeParts(epochMillis(r[eventTimestamp]))
			row := r.Clone()
			row["start_time"] = start
			row["hour"] = hour
			row["day"] = day
			row["week"] = week
			row["month"] = month
			row["year"] = year
			row["weekday"] = weekday
			return row
		})

	timeRel := stamped.Select(timeSchema, func(r engine.Row) engine.Row {
		return engine.Row{
			"start_time": r["start_time"],
			"hour":       r["hour"],
			"day":        r["day"],
			"week":       r["week"],
			"month":      r["month"],
			"year":       r["year"],
			"weekday":    r["weekday"],
		}
	})
	if err := p.writeRelation(timeRel, "time", "year", "month"); err != nil {
		return err
	}

	items, err := p.engine.ReadParquet(p.outputPath("items"), itemsSchema)
	if err != nil {
		return err
	}
	producers, err := p.engine.ReadParquet(p.outputPath("producers"), producersSchema)
	if err != nil {
		return err
	}

	matched := stamped.
		Join(items, eventSong, "title", func(event, item engine.Row) engine.Row {
			row := event.Clone()
			row["item_id"] = item["item_id"]
			return row
		}).
		Join(producers, eventArtist, "name", func(event, producer engine.Row) engine.Row {
			row := event.Clone()
			row["producer_id"] = producer["producer_id"]
			return row
		})
	if misses := stamped.Len() - matched.Len(); misses > 0 {
		log.Warnf("%d play events had no catalog match and were dropped from play_facts", misses)
	}

	playID := int64(0)
	facts := matched.Select(playFactsSchema, func(r engine.Row) engine.Row {
		row := engine.Row{
			"play_id":     playID,
			"start_time":  r["start_time"],
			"month":       r["month"],
			"year":        r["year"],
			"actor_id":    r[eventUserID],
			"level":       r[eventLevel],
			"item_id":     r["item_id"],
			"producer_id": r["producer_id"],
			"session_id":  r[eventSession],
			"location":    r[eventLocation],
			"user_agent":  r[eventUserAgent],
		}
		playID++
		return row
	})
	return p.writeRelation(facts, "play_facts", "year", "month")
}
