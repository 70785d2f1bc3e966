package validators

import "go.mongodb.org/mongo-driver/bson"

var EditLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"holder",
			"locked_at",
			"last_heartbeat",
		},
		"additionalProperties": true,

		"properties": bson.M{
			// The reservation id; one lock per reservation.
			"_id": bson.M{
				"bsonType": "string",
			},

			"holder": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"locked_at": bson.M{
				"bsonType": "date",
			},

			"last_heartbeat": bson.M{
				"bsonType": "date",
			},
		},
	},
}
