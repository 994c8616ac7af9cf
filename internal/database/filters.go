package database

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/models"
)

// directChatFilter matches a chat whose participants contain both users.
// Deliberately "contains both", not "exactly these two": group chats that
// happen to include the pair would also match. That mirrors the lookup
// the platform has always used; see DESIGN.md for the pinned decision.
func directChatFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{
		"participants": bson.M{"$all": bson.A{a, b}},
	}
}

// chatUserSearchFilter matches users by name, email, expertise or skill
// tag, excluding the searching user.
func chatUserSearchFilter(query string, exclude primitive.ObjectID) bson.M {
	rx := primitive.Regex{Pattern: query, Options: "i"}
	return bson.M{
		"$and": bson.A{
			bson.M{"_id": bson.M{"$ne": exclude}},
			bson.M{"$or": bson.A{
				bson.M{"name": rx},
				bson.M{"email": rx},
				bson.M{"expertise": rx},
				bson.M{"skills": bson.M{"$in": bson.A{rx}}},
			}},
		},
	}
}

// skillSearchFilter matches active skills, optionally narrowed by a
// full-text query over the skills text index.
func skillSearchFilter(query string) bson.M {
	filter := bson.M{"active": true}
	if query != "" {
		filter["$text"] = bson.M{"$search": query}
	}
	return filter
}

// ratingSummary recomputes a skill's cached aggregate from scratch over
// its visible reviews. Hidden reviews never contribute; incremental
// patching is avoided so the cache cannot drift.
func ratingSummary(reviews []*models.Review) (avg float64, count int) {
	sum := 0
	for _, r := range reviews {
		if !r.Visible {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}
