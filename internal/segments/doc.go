// Package segments models template segments and enforces their ordering.
//
// A template holds exactly one content segment. Intros sit before it, outros
// after it, and every other kind may go anywhere. Placement is the single
// function that encodes those rules; Move, Insert, and Remove evaluate a
// proposed list against it and either commit the whole change or return the
// original order untouched.
package segments
