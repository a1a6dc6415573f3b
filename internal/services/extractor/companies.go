package extractor

type company struct {
	Name   string
	Symbol string
	// Ambiguous names are also common words or surnames; they only count
	// when the text is clearly about a listed company.
	Ambiguous bool
}

var companies = []company{
	// mega-cap tech
	{Name: "Apple", Symbol: "AAPL"},
	{Name: "Microsoft", Symbol: "MSFT"},
	{Name: "Alphabet", Symbol: "GOOGL"},
	{Name: "Google", Symbol: "GOOGL"},
	{Name: "Amazon", Symbol: "AMZN"},
	{Name: "Meta Platforms", Symbol: "META"},
	{Name: "Meta", Symbol: "META", Ambiguous: true},
	{Name: "Facebook", Symbol: "META"},
	{Name: "Tesla", Symbol: "TSLA"},
	{Name: "Nvidia", Symbol: "NVDA"},
	{Name: "NVIDIA", Symbol: "NVDA"},
	{Name: "Netflix", Symbol: "NFLX"},

	// semis and software
	{Name: "Advanced Micro Devices", Symbol: "AMD"},
	{Name: "Intel", Symbol: "INTC"},
	{Name: "Qualcomm", Symbol: "QCOM"},
	{Name: "Broadcom", Symbol: "AVGO"},
	{Name: "Micron", Symbol: "MU"},
	{Name: "Texas Instruments", Symbol: "TXN"},
	{Name: "Arm Holdings", Symbol: "ARM"},
	{Name: "Taiwan Semiconductor", Symbol: "TSM"},
	{Name: "TSMC", Symbol: "TSM"},
	{Name: "ASML", Symbol: "ASML"},
	{Name: "Supermicro", Symbol: "SMCI"},
	{Name: "Super Micro Computer", Symbol: "SMCI"},
	{Name: "Oracle", Symbol: "ORCL"},
	{Name: "Salesforce", Symbol: "CRM"},
	{Name: "Adobe", Symbol: "ADBE"},
	{Name: "ServiceNow", Symbol: "NOW"},
	{Name: "Snowflake", Symbol: "SNOW"},
	{Name: "Palantir", Symbol: "PLTR"},
	{Name: "CrowdStrike", Symbol: "CRWD"},
	{Name: "Palo Alto Networks", Symbol: "PANW"},
	{Name: "IBM", Symbol: "IBM"},
	{Name: "Cisco", Symbol: "CSCO"},
	{Name: "Dell", Symbol: "DELL"},
	{Name: "Shopify", Symbol: "SHOP"},

	// internet and platforms
	{Name: "Airbnb", Symbol: "ABNB"},
	{Name: "Uber", Symbol: "UBER"},
	{Name: "Lyft", Symbol: "LYFT"},
	{Name: "DoorDash", Symbol: "DASH"},
	{Name: "Spotify", Symbol: "SPOT"},
	{Name: "Snap", Symbol: "SNAP", Ambiguous: true},
	{Name: "Pinterest", Symbol: "PINS"},
	{Name: "Reddit", Symbol: "RDDT"},
	{Name: "Alibaba", Symbol: "BABA"},
	{Name: "Zoom Video", Symbol: "ZM"},

	// financials
	{Name: "JPMorgan", Symbol: "JPM"},
	{Name: "JP Morgan", Symbol: "JPM"},
	{Name: "Goldman Sachs", Symbol: "GS"},
	{Name: "Morgan Stanley", Symbol: "MS"},
	{Name: "Bank of America", Symbol: "BAC"},
	{Name: "Wells Fargo", Symbol: "WFC"},
	{Name: "Citigroup", Symbol: "C"},
	{Name: "BlackRock", Symbol: "BLK"},
	{Name: "Berkshire Hathaway", Symbol: "BRK.B"},
	{Name: "Coinbase", Symbol: "COIN"},
	{Name: "Robinhood", Symbol: "HOOD"},
	{Name: "Block", Symbol: "SQ", Ambiguous: true},
	{Name: "Square", Symbol: "SQ", Ambiguous: true},
	{Name: "PayPal", Symbol: "PYPL"},
	{Name: "Visa", Symbol: "V", Ambiguous: true},
	{Name: "Mastercard", Symbol: "MA"},
	{Name: "American Express", Symbol: "AXP"},
	{Name: "SoFi", Symbol: "SOFI"},

	// retail and consumer
	{Name: "Walmart", Symbol: "WMT"},
	{Name: "Target", Symbol: "TGT", Ambiguous: true},
	{Name: "Costco", Symbol: "COST"},
	{Name: "Home Depot", Symbol: "HD"},
	{Name: "Lowe's", Symbol: "LOW"},
	{Name: "Nike", Symbol: "NKE"},
	{Name: "Starbucks", Symbol: "SBUX"},
	{Name: "McDonald's", Symbol: "MCD"},
	{Name: "Chipotle", Symbol: "CMG"},
	{Name: "Coca-Cola", Symbol: "KO"},
	{Name: "PepsiCo", Symbol: "PEP"},
	{Name: "Procter & Gamble", Symbol: "PG"},
	{Name: "Gap", Symbol: "GAP", Ambiguous: true},
	{Name: "GameStop", Symbol: "GME"},
	{Name: "AMC Entertainment", Symbol: "AMC"},

	// healthcare
	{Name: "Pfizer", Symbol: "PFE"},
	{Name: "Moderna", Symbol: "MRNA"},
	{Name: "Johnson & Johnson", Symbol: "JNJ"},
	{Name: "Merck", Symbol: "MRK"},
	{Name: "AbbVie", Symbol: "ABBV"},
	{Name: "Eli Lilly", Symbol: "LLY"},
	{Name: "UnitedHealth", Symbol: "UNH"},
	{Name: "Novo Nordisk", Symbol: "NVO"},
	{Name: "Bristol Myers", Symbol: "BMY"},
	{Name: "CVS Health", Symbol: "CVS"},

	// energy and industrials
	{Name: "Exxon", Symbol: "XOM"},
	{Name: "ExxonMobil", Symbol: "XOM"},
	{Name: "Chevron", Symbol: "CVX"},
	{Name: "ConocoPhillips", Symbol: "COP"},
	{Name: "Schlumberger", Symbol: "SLB"},
	{Name: "Occidental", Symbol: "OXY"},
	{Name: "Shell", Symbol: "SHEL", Ambiguous: true},
	{Name: "Boeing", Symbol: "BA"},
	{Name: "Lockheed Martin", Symbol: "LMT"},
	{Name: "Raytheon", Symbol: "RTX"},
	{Name: "Caterpillar", Symbol: "CAT"},
	{Name: "General Electric", Symbol: "GE"},
	{Name: "Honeywell", Symbol: "HON"},
	{Name: "FedEx", Symbol: "FDX"},

	// media and telecom
	{Name: "Disney", Symbol: "DIS"},
	{Name: "Comcast", Symbol: "CMCSA"},
	{Name: "Warner Bros", Symbol: "WBD"},
	{Name: "Paramount", Symbol: "PARA", Ambiguous: true},
	{Name: "Verizon", Symbol: "VZ"},
	{Name: "AT&T", Symbol: "T"},

	// autos
	{Name: "Ford", Symbol: "F", Ambiguous: true},
	{Name: "General Motors", Symbol: "GM"},
	{Name: "Lucid", Symbol: "LCID", Ambiguous: true},
	{Name: "Rivian", Symbol: "RIVN"},
	{Name: "NIO", Symbol: "NIO"},
	{Name: "Toyota", Symbol: "TM"},
}

// excludedWords are uppercase tokens that look like tickers but are not.
var excludedWords = map[string]bool{
	"CEO": true, "CFO": true, "CTO": true, "COO": true, "NYSE": true, "NASDAQ": true,
	"USD": true, "USA": true, "US": true, "UK": true, "EU": true, "SEC": true, "FDA": true,
	"FTC": true, "IPO": true, "ETF": true, "API": true, "AI": true, "ML": true, "Q1": true,
	"Q2": true, "Q3": true, "Q4": true, "YOY": true, "MOM": true, "EBITDA": true, "PE": true,
	"EPS": true, "GDP": true, "CPI": true, "PPI": true, "FOMC": true, "FED": true, "DOJ": true,
	"FBI": true, "REIT": true, "SPAC": true, "VIX": true, "DXY": true, "BTC": true, "ETH": true,
	"THE": true, "AND": true, "FOR": true, "ARE": true, "BUT": true, "NOT": true, "YOU": true,
	"ALL": true, "CAN": true, "HER": true, "WAS": true, "ONE": true, "OUR": true, "OUT": true,
	"DAY": true, "GET": true, "HAS": true, "HIM": true, "HIS": true, "HOW": true, "ITS": true,
	"MAY": true, "NEW": true, "OLD": true, "SEE": true, "TWO": true, "WAY": true, "WHO": true,
	"DID": true, "LET": true, "PUT": true, "SAY": true, "SHE": true, "TOO": true, "USE": true,
	"BIG": true, "YES": true, "CEOS": true, "ESG": true, "OPEC": true, "IMF": true, "ECB": true,
	"ATH": true, "DD": true, "YOLO": true, "IRS": true, "EV": true, "EVS": true, "LLC": true,
}
