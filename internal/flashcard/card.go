package flashcard

// Card is a single study flashcard owned by a user.
type Card struct {
	ID        string `bson:"_id" json:"id"`
	UserID    string `bson:"user_id" json:"-"`
	Front     string `bson:"front" json:"front"`
	Back      string `bson:"back" json:"back"`
	Category  string `bson:"category" json:"category"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
}

// Explanation is a saved history entry of an explanation request. The
// original text is truncated before storage so history stays bounded.
type Explanation struct {
	ID           string `bson:"_id" json:"id"`
	UserID       string `bson:"user_id" json:"-"`
	OriginalText string `bson:"original_text" json:"original_text"`
	Explanation  string `bson:"explanation" json:"explanation"`
	Source       string `bson:"source" json:"source"`
	CreatedAt    int64  `bson:"created_at" json:"created_at"`
}

// Draft is generator output before ownership and identity are assigned.
type Draft struct {
	Front    string
	Back     string
	Category string
}
