package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"provider_id",
			"date",
			"start_time",
			"end_time",
			"timezone",
			"slot_duration",
			"status",
			"max_appointments_per_slot",
			"current_appointments",
			"appointment_type",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"provider_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}:\\d{2}$",
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{2}:\\d{2}$",
			},

			"timezone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"is_recurring": bson.M{
				"bsonType": "bool",
			},

			"recurrence_pattern": bson.M{
				"enum": []string{"DAILY", "WEEKLY", "MONTHLY"},
			},

			"recurrence_end_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"slot_duration": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"break_duration": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  480,
			},

			"status": bson.M{
				"enum": []string{"AVAILABLE", "BOOKED", "CANCELLED", "BLOCKED"},
			},

			"max_appointments_per_slot": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  200,
			},

			"current_appointments": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"appointment_type": bson.M{
				"enum": []string{"CONSULTATION", "FOLLOW_UP", "EMERGENCY", "TELEMEDICINE"},
			},

			"location": bson.M{
				"bsonType": "object",
			},

			"pricing": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"base_fee": bson.M{
						"bsonType": []string{"double", "int", "long", "decimal"},
						"minimum":  0,
					},
					"currency": bson.M{
						"bsonType":  "string",
						"minLength": 3,
						"maxLength": 3,
					},
					"insurance_accepted": bson.M{
						"bsonType": "bool",
					},
				},
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"special_requirements": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 1,
					"maxLength": 200,
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
