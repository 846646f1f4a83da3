package parcoursup

import "net/url"

// unset is what the search form posts for a criterion that is not filtered on.
const unset = "-1"

// searchFormKeys are the fields of the search form, all of them are posted on every
// search request.
var searchFormKeys = []string{
	"sender",
	"g_ti_flg_ens_dis_1",
	"g_tf_cod",
	"g_fr_cod",
	"g_fl_cod",
	"g_th_cod",
	"g_tc_cod",
	"g_rg_cod",
	"g_aa_cod",
	"g_dp_cod",
	"b_cm_cod",
	"g_cn_flg_sahn",
	"estIndefini",
	"tri",
}

// searchForm returns the search form with every criterion unset, results sorted
// geographically, then applies overrides.
func searchForm(overrides map[string]string) url.Values {
	form := url.Values{}
	for _, key := range searchFormKeys {
		form.Set(key, unset)
	}
	form.Set("estIndefini", "true")
	form.Set("tri", "geo")
	form.Set("g_cn_flg_sahn", "0")

	for key, value := range overrides {
		form.Set(key, value)
	}
	return form
}

// typeFormationForm is the unfiltered search, its answer lists every commune.
func typeFormationForm() url.Values {
	return searchForm(map[string]string{
		"sender":   "typeFormation",
		"g_tf_cod": unset,
	})
}

// communeForm scopes the search of the session to one commune.
func communeForm(code string) url.Values {
	return searchForm(map[string]string{
		"sender":   "ville",
		"g_tf_cod": unset,
		"b_cm_cod": code,
	})
}
