// Command boardcheck lights every square that holds a piece, for the whole
// board or for one expander row, so the wiring can be checked by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/reedboard/internal/board"
	appcfg "github.com/park285/reedboard/internal/config"
	"github.com/park285/reedboard/internal/hardware"
	"github.com/park285/reedboard/internal/msgcat"
	"github.com/park285/reedboard/internal/square"
)

func main() {
	row := flag.Int("row", -1, "expander row to test (0 = rank 8); -1 tests the whole board")
	period := flag.Duration("period", 50*time.Millisecond, "refresh period")
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	wiring, err := appcfg.LoadWiring(cfg.WiringFile, cfg.Swaps)
	if err != nil {
		log.Fatalf("wiring error: %v", err)
	}
	rows, err := selectRows(*row)
	if err != nil {
		log.Fatal(err)
	}
	cat, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		log.Fatalf("messages error: %v", err)
	}

	bus, err := hardware.OpenI2C(cfg.I2CBus)
	if err != nil {
		log.Fatalf("i2c error: %v", err)
	}
	defer bus.Close()
	grid, err := hardware.NewGrid(bus, wiring)
	if err != nil {
		log.Fatalf("expander init error: %v", err)
	}
	defer grid.Off()

	fmt.Println(cat.Text("boardcheck.start", nil))
	for _, r := range rows {
		fmt.Println(cat.Text("boardcheck.row", map[string]any{"Row": r, "Addr": fmt.Sprintf("%#x", wiring.Addresses[r])}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(*period)
	defer ticker.Stop()

	var last board.Occupancy
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			occ, err := mirror(grid, grid, rows)
			if err != nil {
				log.Printf("refresh error: %v", err)
				continue
			}
			for i := range occ {
				if occ[i] != last[i] {
					fmt.Printf("%s %v\n", square.Index(i), occ[i])
				}
			}
			last = occ
		}
	}
}

func selectRows(row int) ([]int, error) {
	if row < 0 {
		return []int{0, 1, 2, 3, 4, 5, 6, 7}, nil
	}
	if row > 7 {
		return nil, fmt.Errorf("row must be 0..7, got %d", row)
	}
	return []int{row}, nil
}

// mirror samples the sensors once and lights the occupied squares of rows.
// Squares outside rows stay dark and read as empty.
func mirror(sensors board.SensorGrid, lights board.IndicatorGrid, rows []int) (board.Occupancy, error) {
	var occ board.Occupancy
	sample, err := board.Sample(sensors)
	if err != nil {
		return occ, err
	}
	for _, r := range rows {
		for c := 0; c < 8; c++ {
			sq, _ := square.FromRowCol(r, c)
			occ[sq] = sample[sq]
		}
	}
	for i := square.Index(0); i < square.Count; i++ {
		lights.Set(i, occ[i])
	}
	return occ, lights.Flush()
}
