package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/roadshape-mcp/internal/classify"
	"github.com/ironsheep/roadshape-mcp/internal/imaging"
)

var geom classify.ShapeGeometry

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a shape from measured geometry",
	Long: `Classify a shape from measured geometry using the ordered rule table.

--complexity defaults to 1 - solidity when not given.

Example:
  roadshape-mcp classify --vertices 4 --solidity 0.9 --aspect-ratio 1.6 \
    --extent 0.8 --convex --area 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := geom
		if !cmd.Flags().Changed("complexity") {
			g.Complexity = 1 - g.Solidity
		}
		if err := g.Validate(); err != nil {
			return err
		}

		c := classify.Classify(g)
		rule := "fallback"
		if i := classify.Match(g); i >= 0 {
			rule = classify.Rules[i].Name
		}

		return writeOutput(cmd.OutOrStdout(), outputFormat, struct {
			classify.Classification
			Rule     string                 `json:"rule"`
			Color    string                 `json:"color"`
			Geometry classify.ShapeGeometry `json:"geometry"`
		}{c, rule, imaging.ConfidenceColor(c.Confidence), g})
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the classification rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(cmd.OutOrStdout(), outputFormat, classify.Rules)
	},
}

func init() {
	f := classifyCmd.Flags()
	f.Float64Var(&geom.Area, "area", 0, "contour area in square pixels")
	f.Float64Var(&geom.Perimeter, "perimeter", 0, "contour length in pixels")
	f.Float64Var(&geom.AspectRatio, "aspect-ratio", 1, "bounding box width / height")
	f.Float64Var(&geom.Solidity, "solidity", 1, "area / convex hull area")
	f.Float64Var(&geom.Extent, "extent", 1, "area / bounding box area")
	f.IntVar(&geom.Vertices, "vertices", 4, "corner count after simplification")
	f.BoolVar(&geom.IsConvex, "convex", false, "the simplified contour is convex")
	f.Float64Var(&geom.Complexity, "complexity", 0, "1 - solidity unless given")

	classifyCmd.AddCommand(rulesCmd)
}
