package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"clientName",
			"clientEmail",
			"services",
			"date",
			"time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"clientName": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"clientEmail": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$",
			},

			"clientPhone": bson.M{
				"bsonType": "string",
			},

			"userId": bson.M{
				"bsonType": []string{"long", "null"},
			},

			"services": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"serviceName", "price", "stylist"},
					"properties": bson.M{
						"serviceName": bson.M{
							"bsonType":  "string",
							"minLength": 2,
							"maxLength": 100,
						},
						"price": bson.M{
							"bsonType": []string{"double", "int", "long"},
							"minimum":  0,
						},
						"stylist": bson.M{
							"bsonType": "object",
							"required": []string{"id", "name"},
							"properties": bson.M{
								"id": bson.M{
									"bsonType": "long",
									"minimum":  1,
								},
								"name": bson.M{
									"bsonType": "string",
								},
								"email": bson.M{
									"bsonType": "string",
								},
								"phone": bson.M{
									"bsonType": "string",
								},
								"commission": bson.M{
									"bsonType": []string{"double", "int", "long"},
									"minimum":  0,
									"maximum":  1,
								},
							},
						},
					},
				},
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"time": bson.M{
				"bsonType": "string",
				"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"message": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Awaiting Confirmation",
					"Confirmed",
					"Checked In",
					"Completed",
					"Cancelled",
				},
			},

			"totalPrice": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
