package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"viper/internal/box"
	"viper/internal/collections"
	"viper/internal/heap"
	"viper/internal/rtstr"
)

func newHeapdumpCmd() *cobra.Command {
	var outPath, inPath string
	cmd := &cobra.Command{
		Use:   "heapdump",
		Short: "Capture or inspect a heap snapshot",
		Long: `heapdump builds a sample set of runtime containers, snapshots the live heap
and optionally writes the snapshot with --out. With --in it reads a
previously written snapshot instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap *heap.Snapshot
			if inPath != "" {
				s, err := heap.ReadSnapshotFile(inPath)
				if err != nil {
					return err
				}
				snap = s
			} else {
				snap = sampleSnapshot()
				if outPath != "" {
					if err := heap.WriteSnapshotFile(outPath, snap); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
				}
			}
			printSnapshot(newReporter(cmd.OutOrStdout(), useColor(cmd, os.Stdout)), snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the snapshot to file (msgpack)")
	cmd.Flags().StringVar(&inPath, "in", "", "read a snapshot from file instead of taking one")
	cmd.MarkFlagsMutuallyExclusive("out", "in")
	return cmd
}

// sampleSnapshot populates a map, a sequence and an LRU cache, snapshots
// the heap while they are alive, then releases them.
func sampleSnapshot() *heap.Snapshot {
	wasTracking := current.cfg.Heap.LeakCheck
	heap.EnableLiveTracking(true)
	defer heap.EnableLiveTracking(wasTracking)

	m := collections.NewMap()
	seq := collections.NewSeqOf(heap.ElemBox)
	lru := collections.NewLRU(4)
	for i, word := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		key := rtstr.FromString(word)
		v := box.I64(int64(i))
		m.Set(key, v)
		seq.Push(v)
		lru.Put(key, v)
		heap.Release(v)
		rtstr.Release(key)
	}
	snap := heap.TakeSnapshot("viperrt heapdump")
	heap.Release(m)
	heap.Release(seq)
	heap.Release(lru)
	return snap
}

func printSnapshot(rep *reporter, snap *heap.Snapshot) {
	byKind := make(map[string]int)
	for _, b := range snap.Live {
		byKind[b.Kind+"/"+b.Elem]++
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	rep.title("heap snapshot: " + snap.Label)
	pairs := [][2]string{
		{"taken", snap.Taken.Format(time.RFC3339)},
		{"allocs", formatCount(snap.Stats.Allocs)},
		{"frees", formatCount(snap.Stats.Frees)},
		{"live", formatCount(snap.Stats.Live)},
		{"live bytes", formatCount(snap.Stats.LiveBytes)},
		{"retains", formatCount(snap.Stats.Retains)},
		{"releases", formatCount(snap.Stats.Releases)},
		{"tracked", formatCount(len(snap.Live))},
	}
	for _, k := range kinds {
		pairs = append(pairs, [2]string{"  " + k, formatCount(byKind[k])})
	}
	rep.box(keyValues(pairs))
}
