// Command kyoku-sim plays one round with four AI seats and prints the log.
package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"

	"kyoku-table/internal/actor"
	"kyoku-table/internal/config"
	"kyoku-table/internal/kyoku"
	"kyoku-table/internal/logging"
	"kyoku-table/internal/mahjong"
	"kyoku-table/internal/store"
	"kyoku-table/internal/table"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadRound()
	if err != nil {
		log.Fatal().Err(err).Msg("load round config failed")
	}
	seed := cfg.WallSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tb, err := table.Deal(rand.New(rand.NewSource(seed)), mahjong.SeatEast)
	if err != nil {
		log.Fatal().Err(err).Msg("deal failed")
	}
	var actors [mahjong.SeatCount]kyoku.Actor
	for s := range actors {
		actors[s] = actor.NewAI(mahjong.Seat(s), log.Logger)
	}

	var events []kyoku.Event
	ctl := kyoku.New(tb, actors, kyoku.Options{
		RoundID: store.NewID(),
		PollMin: cfg.PollMin,
		PollMax: cfg.PollMax,
		Sinks: []kyoku.Sink{kyoku.SinkFunc(func(_ context.Context, ev kyoku.Event) error {
			events = append(events, ev)
			return nil
		})},
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RoundTimeout)
	defer cancel()
	out, err := ctl.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("round failed")
	}

	pterm.DefaultHeader.WithFullWidth().Printfln("kyoku  seed=%d", seed)
	if err := pterm.DefaultTable.WithHasHeader().WithData(eventRows(events)).Render(); err != nil {
		log.Error().Err(err).Msg("render events failed")
	}
	pterm.DefaultBox.WithTitle(pterm.LightGreen("|OUTCOME|")).WithTitleTopCenter().Println(outcomeText(out))
}

func eventRows(events []kyoku.Event) [][]string {
	rows := [][]string{{"seq", "seat", "kind", "detail"}}
	for _, ev := range events {
		rows = append(rows, []string{
			pterm.Sprint(ev.Seq),
			ev.Seat.String(),
			string(ev.Kind),
			eventDetail(ev),
		})
	}
	return rows
}

func eventDetail(ev kyoku.Event) string {
	switch ev.Kind {
	case kyoku.EventDiscard:
		d := ev.Tile.String()
		if ev.Tsumogiri {
			d += " (tsumogiri)"
		}
		if ev.UnderReach {
			d += " [reach]"
		}
		return d
	case kyoku.EventReach:
		return "declares on " + ev.Tile.String()
	case kyoku.EventCall:
		if ev.Meld == nil {
			return ""
		}
		return pterm.Sprintf("%s %s from %s", ev.Meld.Kind, mahjong.FormatTiles(ev.Meld.Tiles), ev.Meld.From)
	case kyoku.EventRoundEnd:
		if ev.Outcome != nil {
			return string(ev.Outcome.Kind)
		}
	}
	return ""
}

func outcomeText(out kyoku.Outcome) string {
	switch {
	case len(out.Wins) > 0:
		text := ""
		for i, w := range out.Wins {
			if i > 0 {
				text += "\n"
			}
			how := "ron from " + w.From.String()
			if w.Tsumo {
				how = "tsumo"
			}
			text += pterm.Sprintf("%s wins on %s by %s\n  %s", pterm.LightCyan(w.Seat), w.Tile, how, mahjong.FormatTiles(w.Hand))
		}
		if out.Kind.IsAbort() {
			text += "\n" + pterm.LightRed("aborted: "+string(out.Kind))
		}
		return text
	case out.Kind == kyoku.OutcomeExhausted:
		text := "exhaustive draw"
		for s := mahjong.Seat(0); s < mahjong.SeatCount; s++ {
			if hand, ok := out.Tenpai[s]; ok {
				text += pterm.Sprintf("\n  %s tenpai  %s", s, mahjong.FormatTiles(hand))
			}
		}
		return text
	}
	return pterm.LightRed("aborted: " + string(out.Kind))
}
