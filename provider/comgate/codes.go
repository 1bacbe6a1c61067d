package comgate

// responseCodes backfills messages the gateway left empty
var responseCodes = map[int]string{
	0:    "OK",
	1100: "unknown error",
	1102: "the specified language is not supported",
	1103: "method incorrectly specified",
	1104: "unable to load payment",
	1107: "payment price is not supported",
	1200: "database error",
	1301: "unknown e-shop",
	1303: "the link or language is missing",
	1304: "invalid category",
	1305: "product description is missing",
	1306: "select the correct method",
	1308: "the selected payment method is not allowed",
	1309: "incorrect amount",
	1310: "unknown currency",
	1311: "invalid e-shop bank account identifier",
	1316: "e-shop does not allow recurring payments",
	1317: "invalid method - does not support recurring payments",
	1318: "initial payment not found",
	1319: "can not create a payment, a problem on the part of the bank",
	1399: "unexpected result from database",
	1400: "wrong query",
	1401: "the refunded payment is in the CANCELED state",
	1402: "refund amount higher than allowed",
	1500: "unexpected error",
}

// ResponseMessage returns the message of a gateway response code
func ResponseMessage(code int) string {
	if msg, ok := responseCodes[code]; ok {
		return msg
	}
	return responseCodes[1100]
}
