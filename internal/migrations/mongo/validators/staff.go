package validators

import "go.mongodb.org/mongo-driver/bson"

// A nil schedule entry is a day off and stored as null.
var dayHoursSchema = bson.M{
	"anyOf": []bson.M{
		{"bsonType": "null"},
		{
			"bsonType": "object",
			"required": []string{"start", "end"},
			"properties": bson.M{
				"start": bson.M{
					"bsonType": "string",
					"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
				},
				"end": bson.M{
					"bsonType": "string",
					"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
				},
			},
		},
	},
}

var StaffValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"role",
			"specialties",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$",
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"role": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"specialties": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"commission": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
				"maximum":  1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
				},
			},

			"schedule": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"sunday":    dayHoursSchema,
					"monday":    dayHoursSchema,
					"tuesday":   dayHoursSchema,
					"wednesday": dayHoursSchema,
					"thursday":  dayHoursSchema,
					"friday":    dayHoursSchema,
					"saturday":  dayHoursSchema,
				},
				"additionalProperties": false,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
