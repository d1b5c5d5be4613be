// Command pathtest runs the shortest-arc search between two vertices of a
// polygon and prints both traversals and the slice it would produce.
package main

import (
	"flag"
	"fmt"
	"os"

	"seg-editor/internal/edit"
	"seg-editor/internal/pathfind"
	"seg-editor/internal/segmentation"
)

func main() {
	polygonsPath := flag.String("polygons", "", "Path to a segmentation result (JSON)")
	id := flag.String("id", "", "Polygon id (default: first polygon)")
	start := flag.Int("start", 0, "Start vertex index")
	end := flag.Int("end", 1, "End vertex index")
	flag.Parse()

	if *polygonsPath == "" {
		fmt.Println("Usage: pathtest -polygons <file.json> [-id polygon] -start <i> -end <j>")
		os.Exit(1)
	}

	set, err := segmentation.Load(*polygonsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load polygons: %v\n", err)
		os.Exit(1)
	}
	if *id == "" {
		ids := set.IDs()
		if len(ids) == 0 {
			fmt.Fprintln(os.Stderr, "No polygons in file")
			os.Exit(1)
		}
		*id = ids[0]
	}
	p, err := set.Lookup(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Polygon %s (%s): %d vertices\n", p.ID, p.Kind, len(p.Points))

	fwd, bwd, err := pathfind.Traversals(p.Points, *start, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Path search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%-10s %10s %10s  %s\n", "Direction", "Length", "Vertices", "Indices")
	for _, r := range []pathfind.Result{fwd, bwd} {
		fmt.Printf("%-10s %10.2f %10d  %v\n", r.Direction, r.Length, len(r.Indices), r.Indices)
	}

	best, err := pathfind.FindPath(p.Points, *start, *end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Path search failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nShortest: %s (%.2f)\n", best.Direction, best.Length)

	_, split, err := edit.SplitRing(set, p.ID, fwd, bwd)
	if err != nil {
		fmt.Printf("Slice: not possible (%v)\n", err)
		return
	}
	fmt.Printf("Slice: %s -> %s, %s\n", split.Retired, split.Created[0], split.Created[1])
}
