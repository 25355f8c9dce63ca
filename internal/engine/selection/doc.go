// Package selection turns sparse point input from an operator into a shape.
//
// A Selection holds up to two points and a Mode:
//
//   - ModeCuboid: point 0 and point 1 are opposite corners.
//   - ModeExtend: point 0 starts a box; every later point grows it. The box
//     never shrinks.
//   - ModeSphere: point 0 is the centre; point 1 is recomputed on every click
//     so that its distance from the centre is the rounded click distance.
//
// A selection is valid once both points are set. Shape returns the matching
// shape.Shape and its anchor; BlockCount returns the exact (cuboid) or
// estimated (sphere) number of blocks.
//
// Display points are a derived outline used for visualisation only.
package selection
