package services

import (
	"math/rand/v2"

	"github.com/labelforge/labelforge-engine/pkg/models"
)

// Split names, in archive order.
const (
	SplitTrain = "train"
	SplitVal   = "val"
	SplitTest  = "test"
)

// SplitSet holds the three disjoint partitions of an export. Together the
// splits cover every input image exactly once.
type SplitSet struct {
	Train []*models.Image
	Val   []*models.Image
	Test  []*models.Image
}

// Total returns the number of images across all three splits.
func (s SplitSet) Total() int {
	return len(s.Train) + len(s.Val) + len(s.Test)
}

// NamedSplit pairs a split name with its images.
type NamedSplit struct {
	Name   string
	Images []*models.Image
}

// Ordered returns the splits in archive order: train, val, test.
func (s SplitSet) Ordered() []NamedSplit {
	return []NamedSplit{
		{SplitTrain, s.Train},
		{SplitVal, s.Val},
		{SplitTest, s.Test},
	}
}

// PartitionImages shuffles the images uniformly at random and partitions them
// by the given ratios. Train and val sizes are floor(N*ratio); the test split
// absorbs the rounding remainder. The shuffle is unseeded: repeated exports
// over the same images produce different assignments.
//
// The caller is responsible for validating the ratios; this function accepts
// whatever it is given, including an empty input (three empty splits).
func PartitionImages(images []*models.Image, ratios models.SplitRatios) SplitSet {
	shuffled := make([]*models.Image, len(images))
	copy(shuffled, images)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainN := int(float64(n) * ratios.Train)
	valN := int(float64(n) * ratios.Val)

	return SplitSet{
		Train: shuffled[:trainN],
		Val:   shuffled[trainN : trainN+valN],
		Test:  shuffled[trainN+valN:],
	}
}
