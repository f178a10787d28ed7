// Command hwcount reports the time stamp counter setup of the current machine
// and times fixed work loops with hwcounter.Timer.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/hwcounter"
	log "github.com/sirupsen/logrus"
)

// sink keeps work loops observable so the compiler cannot drop them.
var sink uint64

type workResult struct {
	iters  int
	min    uint64
	median uint64
	max    uint64
}

func main() {
	var (
		workList = flag.String("work", "10,100,1000,10000", "comma-separated loop iteration counts")
		samples  = flag.Int("samples", 101, "measurements per loop size")
		trials   = flag.Int("trials", hwcounter.DefaultOverheadTrials, "overhead calibration trials per measurement")
		pin      = flag.Bool("pin", true, "lock the main goroutine to its OS thread")
		logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if err := hwcounter.Check(); err != nil {
		log.Fatal(err)
	}

	reportPlatform(hwcounter.Platform())

	sizes := parseSizes(*workList)
	if len(sizes) == 0 {
		log.Error("no work sizes specified")
		return
	}

	if *samples < 1 {
		log.Warnf("samples=%d, using 1", *samples)
		*samples = 1
	}

	overhead := sampleOverhead(*samples, *trials)
	fmt.Printf("overhead trials=%d samples=%d min=%d median=%d max=%d\n",
		*trials, len(overhead), overhead[0], overhead[len(overhead)/2], overhead[len(overhead)-1])

	fmt.Println()
	fmt.Printf("%10s  %10s  %10s  %10s\n", "iters", "min", "median", "max")

	timer := hwcounter.NewTimer(hwcounter.WithOverheadTrials(*trials))

	var prev uint64

	for _, n := range sizes {
		res, err := timeWork(timer, n, *samples)
		if err != nil {
			log.WithError(err).WithField("iters", n).Error("measurement failed")
			continue
		}

		fmt.Printf("%10d  %10d  %10d  %10d\n", res.iters, res.min, res.median, res.max)

		if res.min < prev {
			log.WithField("iters", n).Warn("more work measured fewer cycles, the host is noisy")
		}

		prev = res.min
	}

	log.Debugf("sink=%d", sink)
}

func reportPlatform(f hwcounter.Features) {
	fields := log.Fields{
		"arch":         f.Architecture,
		"vendor":       strings.TrimSpace(f.Vendor),
		"rdtscp":       f.HasRDTSCP,
		"invariantTSC": f.HasInvariantTSC,
		"sse2":         f.HasSSE2,
		"avx2":         f.HasAVX2,
	}

	log.WithFields(fields).Info("detected counter features")

	if !f.HasInvariantTSC {
		log.Warn("TSC is not invariant: counts vary with frequency scaling and may differ between cores")
	}
}

func sampleOverhead(samples, trials int) []uint64 {
	out := make([]uint64, samples)
	for i := range out {
		out[i] = hwcounter.MeasureOverheadTrials(trials)
	}

	slices.Sort(out)

	return out
}

func timeWork(timer *hwcounter.Timer, iters, samples int) (workResult, error) {
	counts := make([]uint64, 0, samples)

	for range samples {
		cycles, err := timer.Measure(func() { work(iters) })
		if err != nil {
			return workResult{}, err
		}

		counts = append(counts, cycles)
	}

	slices.Sort(counts)

	return workResult{
		iters:  iters,
		min:    counts[0],
		median: counts[len(counts)/2],
		max:    counts[len(counts)-1],
	}, nil
}

func work(n int) {
	for i := range n {
		sink += uint64(i)*0x9e3779b97f4a7c15 + 1
	}
}

func parseSizes(list string) []int {
	parts := strings.Split(list, ",")

	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			log.WithField("value", part).Warn("ignoring invalid work size")
			continue
		}

		out = append(out, n)
	}

	return out
}
