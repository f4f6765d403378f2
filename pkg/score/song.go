package score

// Song is the melody played on every cycle.
func Song() Score {
	return Score{
		// first phrase
		Note(D, 4, DottedQuarter), Rest(TripletEighth),
		Note(F, 4, TripletEighth), Note(A, 4, TripletEighth),
		Note(D, 4, TripletEighth), Note(F, 4, TripletEighth), Note(A, 4, TripletEighth),
		Note(D, 4, Half), Rest(TripletEighth),

		Note(F, 4, TripletEighth), Note(A, 4, TripletEighth),
		Note(D, 4, TripletEighth), Note(F, 4, TripletEighth),
		Note(A, 4, Eighth), Note(D, 4, Half), Rest(TripletEighth),

		Note(G, 4, TripletEighth), Note(F, 4, TripletEighth),
		Note(G, 4, TripletEighth), Note(F, 4, Eighth),
		Note(D, 4, Whole), Rest(TripletEighth),

		// second phrase
		Note(F, 4, TripletEighth, Sharp), Note(A, 4, TripletEighth),
		Note(D, 5, TripletEighth), Note(F, 4, TripletEighth, Sharp),
		Note(A, 4, TripletEighth), Note(D, 5, TripletEighth),
		Note(G, 4, Quarter), Rest(TripletEighth),

		Note(B, 4, DottedEighth, Flat), Note(D, 5, Eighth),
		Note(B, 4, Eighth, Flat), Note(G, 4, DottedEighth),
		Note(D, 5, TripletEighth), Note(B, 4, Eighth, Flat),
		Note(G, 4, TripletQuarter), Note(E, 4, Half), Rest(TripletEighth),

		Note(G, 4, TripletEighth), Note(C, 5, TripletEighth),
		Note(E, 4, TripletEighth), Note(G, 4, TripletEighth),
		Note(C, 5, TripletEighth), Note(F, 4, Half), Rest(TripletEighth),

		Note(D, 4, Sixteenth), Note(F, 4, Sixteenth),
		Note(A, 4, Sixteenth), Note(D, 5, Sixteenth),
		Note(C, 4, Eighth), Note(B, 4, Sixteenth, Flat),
		Note(A, 4, Eighth), Note(G, 4, Eighth),
	}
}
